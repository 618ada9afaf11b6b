package migrations

import "embed"

// Migrations holds the versioned schema. Version 3 introduces the entered-key
// columns the mutual handshake depends on.
//
//go:embed *.sql
var Migrations embed.FS
