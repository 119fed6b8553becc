// Package sql embeds the gateway's Postgres schema.
package sql

import (
	"embed"
)

//go:embed schema/*.sql
var Content embed.FS
