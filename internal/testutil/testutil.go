// Package testutil provides test utilities for the dashboard, including:
//   - SQLite fixture warehouses seeded with claims and crosswalk rows (fixtures.go)
//   - Miniredis helpers for the shared cache tier (miniredis.go)
//
// None of the helpers need Docker or a network connection.
package testutil
