// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfigOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("institution", "Example University")
	viper.Set("delay", "750ms")
	viper.Set("from-year", "2020")

	flags := pflag.NewFlagSet("scrape", pflag.ContinueOnError)
	flags.String("institution", "", "")
	flags.Duration("delay", 0, "")
	flags.Int("from-year", 0, "")
	flags.String("out", "data/publications.json", "")

	// Explicit command-line values win over the config file.
	require.NoError(t, flags.Parse([]string{"--institution", "Other University"}))

	applyConfigOverrides(flags)

	institution, _ := flags.GetString("institution")
	assert.Equal(t, "Other University", institution)

	delay, _ := flags.GetDuration("delay")
	assert.Equal(t, 750*time.Millisecond, delay)

	fromYear, _ := flags.GetInt("from-year")
	assert.Equal(t, 2020, fromYear)

	// Flags absent from the config keep their defaults.
	out, _ := flags.GetString("out")
	assert.Equal(t, "data/publications.json", out)
}
