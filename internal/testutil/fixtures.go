package testutil

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ClaimRow is one row of the claims fact relation
type ClaimRow struct {
	NPI           string
	HCPCS         string
	Month         string
	Claims        int64
	Beneficiaries int64
	Paid          float64
	State         string
	City          string
	Zip           string
	Address       string
	Organization  string
	LastName      string
	FirstName     string
	Credential    string
	Taxonomy      string
}

// ReferenceRow is one row of the code to category crosswalk
type ReferenceRow struct {
	Code        string
	Category    string
	Description string
}

// DefaultReference returns a small crosswalk covering the categories used by the fixtures
func DefaultReference() []ReferenceRow {
	return []ReferenceRow{
		{Code: "86701", Category: "HIV Testing", Description: "HIV-1 antibody"},
		{Code: "87389", Category: "HIV Testing", Description: "HIV-1/HIV-2 antigen and antibody"},
		{Code: "J0739", Category: "PrEP", Description: "Injection, cabotegravir, 1 mg"},
		{Code: "G0011", Category: "PrEP", Description: "Individual counseling for PrEP"},
		{Code: "J0750", Category: "ART", Description: "Emtricitabine/tenofovir oral"},
		{Code: "87536", Category: "Lab Monitoring", Description: "HIV-1 quantification"},
		{Code: "T1016", Category: "Case Management", Description: "Case management, each 15 minutes"},
	}
}

// GAScenario returns three Georgia rows totalling 175 claims and two rows from
// other states
func GAScenario() []ClaimRow {
	return []ClaimRow{
		{NPI: "1000000001", HCPCS: "86701", Month: "2021-03", Claims: 100, Beneficiaries: 80, Paid: 1500.25,
			State: "GA", City: "Atlanta", Zip: "30303", Address: "1 Peachtree St", Organization: "Midtown Clinic",
			LastName: "Smith", FirstName: "Ann", Credential: "MD", Taxonomy: "207Q00000X"},
		{NPI: "1000000001", HCPCS: "J0739", Month: "2021-04", Claims: 50, Beneficiaries: 40, Paid: 2200,
			State: "GA", City: "Atlanta", Zip: "30303", Address: "1 Peachtree St", Organization: "Midtown Clinic",
			LastName: "Smith", FirstName: "Ann", Credential: "MD", Taxonomy: "207Q00000X"},
		{NPI: "1000000002", HCPCS: "J0750", Month: "2022-01", Claims: 25, Beneficiaries: 20, Paid: 900.5,
			State: "GA", City: "Savannah", Zip: "31401", Address: "9 Bay St", Organization: "Coastal Health",
			LastName: "Jones", FirstName: "Raj", Credential: "NP", Taxonomy: "363L00000X"},
		{NPI: "1000000003", HCPCS: "86701", Month: "2021-03", Claims: 70, Beneficiaries: 60, Paid: 800,
			State: "NC", City: "Durham", Zip: "27701", Address: "5 Main St", Organization: "Triangle Care",
			LastName: "Smithers", FirstName: "Lee", Credential: "DO", Taxonomy: "207R00000X"},
		{NPI: "1000000004", HCPCS: "T1016", Month: "2022-06", Claims: 30, Beneficiaries: 10, Paid: 300,
			State: "FL", City: "Miami", Zip: "33101", Address: "2 Ocean Dr", Organization: "Bayfront Services",
			LastName: "Garcia", FirstName: "Ana", Credential: "LCSW", Taxonomy: "1041C0700X"},
	}
}

// NewSQLiteWarehouse creates a SQLite file holding the claims relation and every
// registered crosswalk table, seeded with claims and DefaultReference. It
// returns the file path.
func NewSQLiteWarehouse(t *testing.T, claims []ClaimRow) string {
	t.Helper()

	return NewSQLiteWarehouseWithReference(t, claims, DefaultReference())
}

// NewSQLiteWarehouseWithReference is NewSQLiteWarehouse with a custom crosswalk
// loaded into every registered reference table
func NewSQLiteWarehouseWithReference(t *testing.T, claims []ClaimRow, reference []ReferenceRow) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "warehouse.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	claimColumns := []string{
		query.ColNPI, query.ColHCPCS, query.ColMonth, query.ColClaims, query.ColBeneficiary, query.ColPaid,
		query.ColState, query.ColCity, query.ColZip, query.ColAddress, query.ColOrganization,
		query.ColLastName, query.ColFirstName, query.ColCredential, query.ColTaxonomy,
	}
	types := []string{
		"TEXT", "TEXT", "TEXT", "INTEGER", "INTEGER", "REAL",
		"TEXT", "TEXT", "TEXT", "TEXT", "TEXT", "TEXT", "TEXT", "TEXT", "TEXT",
	}

	defs := make([]string, len(claimColumns))
	for i, col := range claimColumns {
		defs[i] = col + " " + types[i]
	}

	_, err = db.Exec("CREATE TABLE tmsis_enriched (" + strings.Join(defs, ", ") + ")")
	require.NoError(t, err)

	insert := "INSERT INTO tmsis_enriched (" + strings.Join(claimColumns, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(claimColumns)), ", ") + ")"

	for _, r := range claims {
		_, err = db.Exec(insert,
			r.NPI, r.HCPCS, r.Month, r.Claims, r.Beneficiaries, r.Paid,
			nullable(r.State), r.City, r.Zip, r.Address, r.Organization,
			r.LastName, r.FirstName, r.Credential, r.Taxonomy,
		)
		require.NoError(t, err)
	}

	for _, v := range query.ReferenceVersions() {
		_, err = db.Exec("CREATE TABLE " + v.Table + " (" +
			query.RefCode + " TEXT, " + query.RefCategory + " TEXT, " + query.RefDescription + " TEXT)")
		require.NoError(t, err)

		for _, r := range reference {
			_, err = db.Exec("INSERT INTO "+v.Table+" VALUES (?, ?, ?)", r.Code, r.Category, r.Description)
			require.NoError(t, err)
		}
	}

	return path
}

// nullable stores an empty string as SQL NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
