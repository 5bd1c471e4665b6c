// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/meshintel/scopus-harvest/internal/resolve"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

// LoadCSVRoster reads a staff roster CSV with columns: name,
// email-or-ORCID, Scopus author ID (or "NA"), department. A header row is
// detected by its first cell and skipped.
func LoadCSVRoster(path string) ([]types.StaffRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}

	var staff []types.StaffRecord
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("roster %s row %d: expected 4 columns, got %d", path, i+1, len(row))
		}

		rec := types.StaffRecord{
			Name:       strings.TrimSpace(row[0]),
			Department: strings.TrimSpace(row[3]),
		}

		// Column 2 carries either an email or an ORCID.
		second := strings.TrimSpace(row[1])
		if strings.Contains(second, "@") {
			rec.Email = second
		} else if _, ok := resolve.NormalizeORCID(second); ok {
			rec.ORCIDURL = second
		}

		if id := strings.TrimSpace(row[2]); id != "" && id != types.NASentinel {
			rec.KnownAuthorID = id
		}

		staff = append(staff, rec)
	}
	return staff, nil
}

// Directory JSON structures: faculty → department → staff.
type directoryFile struct {
	Faculties []directoryFaculty `json:"faculties"`
}

type directoryFaculty struct {
	Name        string                `json:"name"`
	Departments []directoryDepartment `json:"departments"`
}

type directoryDepartment struct {
	Name  string           `json:"name"`
	Staff []directoryStaff `json:"staff"`
}

type directoryStaff struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Designation string `json:"designation"`
	ScopusURL   string `json:"scopus_url"`
	ORCIDURL    string `json:"orcid_url"`
	ProfileURL  string `json:"profile_url"`
}

// LoadDirectory reads the nested staff-directory JSON and flattens it into
// staff records, preserving faculty and department names. Order follows
// the file: faculties, then departments, then staff.
func LoadDirectory(path string) ([]types.StaffRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}

	var dir directoryFile
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("parsing directory %s: %w", path, err)
	}

	var staff []types.StaffRecord
	for _, fac := range dir.Faculties {
		for _, dept := range fac.Departments {
			for _, s := range dept.Staff {
				staff = append(staff, types.StaffRecord{
					Name:        s.Name,
					Email:       s.Email,
					Faculty:     fac.Name,
					Department:  dept.Name,
					Designation: s.Designation,
					ScopusURL:   s.ScopusURL,
					ORCIDURL:    s.ORCIDURL,
					ProfileURL:  s.ProfileURL,
				})
			}
		}
	}
	return staff, nil
}

// FilterFaculty keeps staff whose faculty matches name, case-insensitively.
// An empty name keeps everyone.
func FilterFaculty(staff []types.StaffRecord, name string) []types.StaffRecord {
	if name == "" {
		return staff
	}
	var kept []types.StaffRecord
	for _, s := range staff {
		if strings.EqualFold(s.Faculty, name) {
			kept = append(kept, s)
		}
	}
	return kept
}
