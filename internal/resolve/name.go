// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrNoSurname reports a name that stripped to nothing, so no search
// query can be derived from it.
var ErrNoSurname = errors.New("no surname could be extracted from name")

// NameRules holds the honorific and particle tables used to derive a
// search surname from a free-text staff name. The tables are data, not
// code: a YAML rules file can replace any of them without touching the
// stripping logic.
type NameRules struct {
	// Honorifics are title prefixes stripped from the front of a name,
	// matched token-wise and case-insensitively. Trailing periods on
	// name tokens are ignored during matching.
	Honorifics []string `yaml:"honorifics"`

	// Suffixes are qualification suffixes stripped from the end of a
	// name (degree abbreviations and the like).
	Suffixes []string `yaml:"suffixes"`

	// Particles are patronymic connectors. When one appears, the search
	// surname is taken from the segment after the particle, matching how
	// Scopus indexes patronymic names.
	Particles []string `yaml:"particles"`
}

// DefaultNameRules returns the built-in tables. The honorific list covers
// academic titles plus the religious and royal titles common in Malaysian
// staff directories.
func DefaultNameRules() NameRules {
	return NameRules{
		Honorifics: []string{
			"professor", "prof", "dr", "ir", "ts", "gs", "sr", "assoc",
			"associate", "mr", "mrs", "ms", "madam", "puan", "encik", "cik",
			"tun", "tan sri", "puan sri", "datuk", "dato'", "dato", "datin",
			"toh puan", "haji", "hajah", "hj", "hjh", "syed", "sharifah",
			"tuan", "ustaz", "ustazah",
		},
		Suffixes: []string{
			"phd", "ph.d", "dphil", "md", "msc", "ma", "mba", "bsc",
			"p.eng", "ceng", "fasc", "jp",
		},
		Particles: []string{
			"bin", "binti", "bt", "bte", "ibni", "a/l", "a/p", "anak",
		},
	}
}

// LoadNameRules reads a YAML rules file. Lists present in the file
// replace the corresponding built-in table; absent lists keep defaults.
func LoadNameRules(path string) (NameRules, error) {
	rules := DefaultNameRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("reading name rules %s: %w", path, err)
	}

	var loaded NameRules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return rules, fmt.Errorf("parsing name rules %s: %w", path, err)
	}

	if len(loaded.Honorifics) > 0 {
		rules.Honorifics = loaded.Honorifics
	}
	if len(loaded.Suffixes) > 0 {
		rules.Suffixes = loaded.Suffixes
	}
	if len(loaded.Particles) > 0 {
		rules.Particles = loaded.Particles
	}
	return rules, nil
}

// parenPattern matches parenthetical remarks, e.g. "(on leave)".
var parenPattern = regexp.MustCompile(`\([^)]*\)`)

// CleanName strips parenthetical remarks, honorific prefixes, and
// qualification suffixes from a free-text name.
func CleanName(name string, rules NameRules) string {
	name = parenPattern.ReplaceAllString(name, " ")
	name = strings.Join(strings.Fields(name), " ")

	tokens := strings.Fields(name)

	// Strip leading honorifics. Multi-word titles ("tan sri") are matched
	// greedily before single tokens.
	for len(tokens) > 0 {
		if n := matchTitle(tokens, rules.Honorifics); n > 0 {
			tokens = tokens[n:]
			continue
		}
		break
	}

	// Strip trailing qualification suffixes.
	for len(tokens) > 0 {
		last := normalizeToken(tokens[len(tokens)-1])
		if containsToken(rules.Suffixes, last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}

	return strings.Join(tokens, " ")
}

// Surname derives the search surname from a cleaned name. A patronymic
// particle splits the name and the surname comes from the segment after
// it; otherwise the last whitespace-delimited token is used. Returns
// ErrNoSurname when nothing remains.
func Surname(name string, rules NameRules) (string, error) {
	cleaned := CleanName(name, rules)
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return "", ErrNoSurname
	}

	for i, tok := range tokens {
		if containsToken(rules.Particles, normalizeToken(tok)) {
			after := tokens[i+1:]
			if len(after) > 0 {
				return after[len(after)-1], nil
			}
			// Particle at the end of the name; fall back to the token
			// before it.
			if i > 0 {
				return tokens[i-1], nil
			}
			return "", ErrNoSurname
		}
	}

	return tokens[len(tokens)-1], nil
}

// matchTitle returns how many leading tokens match a title from the
// table, or 0 when none match.
func matchTitle(tokens []string, titles []string) int {
	// Try two-token titles first.
	if len(tokens) >= 2 {
		two := normalizeToken(tokens[0]) + " " + normalizeToken(tokens[1])
		if containsToken(titles, two) {
			return 2
		}
	}
	if containsToken(titles, normalizeToken(tokens[0])) {
		return 1
	}
	return 0
}

// normalizeToken lowercases a token and drops trailing periods so "Dr."
// matches the table entry "dr".
func normalizeToken(tok string) string {
	return strings.TrimRight(strings.ToLower(tok), ".")
}

func containsToken(table []string, tok string) bool {
	for _, t := range table {
		if t == tok {
			return true
		}
	}
	return false
}
