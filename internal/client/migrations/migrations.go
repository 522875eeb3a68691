// Package migrations embeds the client-side sqlite schema managed by goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
