// Package testutil provides test utilities for contrack, including:
//   - Miniredis helpers for unit tests (miniredis.go)
//   - Contract fixtures modelled on real import rows (fixtures.go)
//
// None of the helpers need Docker or a running Redis server.
package testutil
