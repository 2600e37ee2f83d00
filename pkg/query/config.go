// Package query builds the dashboard's aggregate SQL statements from filter state
package query

import (
	"errors"
	"fmt"
	"regexp"
)

// Static errors for configuration validation
var (
	ErrInvalidTableName = errors.New("invalid table name")
)

//nolint:gochecknoglobals // Compiled once
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Config names the relations the catalog reads from
type Config struct {
	ClaimsTable string          `yaml:"claimsTable" default:"tmsis_enriched"`
	Reference   ReferenceConfig `yaml:"reference"`
}

// ReferenceConfig selects the active HCPCS crosswalk revision
type ReferenceConfig struct {
	Version string `yaml:"version" default:"v2"`
	// Table overrides the registered table name for the selected version
	Table string `yaml:"table"`
}

// Validate checks table names are plain identifiers and the version exists
func (c *Config) Validate() error {
	if !tableNamePattern.MatchString(c.ClaimsTable) {
		return fmt.Errorf("%w: claimsTable %q", ErrInvalidTableName, c.ClaimsTable)
	}

	if c.Reference.Table != "" && !tableNamePattern.MatchString(c.Reference.Table) {
		return fmt.Errorf("%w: reference.table %q", ErrInvalidTableName, c.Reference.Table)
	}

	if _, err := LookupReferenceVersion(c.Reference.Version, c.Reference.Table); err != nil {
		return err
	}

	return nil
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.ClaimsTable == "" {
		c.ClaimsTable = "tmsis_enriched"
	}

	if c.Reference.Version == "" {
		c.Reference.Version = "v2"
	}
}
