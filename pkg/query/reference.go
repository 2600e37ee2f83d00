package query

import (
	"errors"
	"fmt"
)

// ErrUnknownReferenceVersion is returned when the configured crosswalk version is not registered
var ErrUnknownReferenceVersion = errors.New("unknown HCPCS reference version")

// ReferenceVersion describes one published revision of the HCPCS to HIV
// category crosswalk. Each revision lives in its own table so results from
// different revisions never share query text.
type ReferenceVersion struct {
	ID          string `json:"id"`
	Table       string `json:"table"`
	Codes       int    `json:"codes"`
	Categories  int    `json:"categories"`
	Description string `json:"description"`
}

//nolint:gochecknoglobals // Registry of published crosswalk revisions
var referenceVersions = []ReferenceVersion{
	{
		ID:          "v1",
		Table:       "hiv_hcpcs_reference_v1",
		Codes:       27,
		Categories:  7,
		Description: "Initial HIV service crosswalk",
	},
	{
		ID:          "v2",
		Table:       "hiv_hcpcs_reference_v2",
		Codes:       67,
		Categories:  7,
		Description: "Expanded crosswalk covering PrEP injectables, lab monitoring and case management codes",
	},
}

// ReferenceVersions returns every registered crosswalk revision, oldest first
func ReferenceVersions() []ReferenceVersion {
	return append([]ReferenceVersion(nil), referenceVersions...)
}

// LookupReferenceVersion finds a revision by ID, applying a table override when set
func LookupReferenceVersion(id, tableOverride string) (ReferenceVersion, error) {
	for _, v := range referenceVersions {
		if v.ID != id {
			continue
		}
		if tableOverride != "" {
			v.Table = tableOverride
		}
		return v, nil
	}

	return ReferenceVersion{}, fmt.Errorf("%w: %q", ErrUnknownReferenceVersion, id)
}
