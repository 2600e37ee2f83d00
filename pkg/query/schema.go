package query

// Claims relation columns. Identifiers carrying spaces are stored quoted.
const (
	ColNPI          = "BILLING_PROVIDER_NPI_NUM"
	ColHCPCS        = "HCPCS_CODE"
	ColMonth        = "CLAIM_FROM_MONTH"
	ColClaims       = "TOTAL_CLAIMS"
	ColBeneficiary  = "TOTAL_UNIQUE_BENEFICIARIES"
	ColPaid         = "TOTAL_PAID"
	ColState        = `"Provider Business Practice Location Address State Name"`
	ColCity         = `"Provider Business Practice Location Address City Name"`
	ColZip          = `"Provider Business Practice Location Address Postal Code"`
	ColAddress      = `"Provider First Line Business Practice Location Address"`
	ColOrganization = `"Provider Organization Name (Legal Business Name)"`
	ColLastName     = `"Provider Last Name (Legal Name)"`
	ColFirstName    = `"Provider First Name"`
	ColCredential   = `"Provider Credential Text"`
	ColTaxonomy     = `"Healthcare Provider Taxonomy Code_1"`
)

// Reference relation columns
const (
	RefCode        = "hcpcs_code"
	RefCategory    = "category"
	RefDescription = "description"
)

// Table aliases used by the catalog
const (
	claimsAlias    = "c"
	referenceAlias = "h"
)

// qualify prefixes column with alias, leaving it bare when alias is empty
func qualify(alias, column string) string {
	if alias == "" {
		return column
	}

	return alias + "." + column
}
