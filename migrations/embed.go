// Package migrations holds the postgres schema for the sql cart driver.
package migrations

import "embed"

// FS contains the numbered up/down migration pairs
//
//go:embed *.sql
var FS embed.FS
