// Package gamedata provides the ability catalog, combatant definitions and the
// embedded JSON they are loaded from.
package gamedata

import "embed"

// dataFS embeds all JSON files from this directory at build time.
//
//go:embed *.json
var dataFS embed.FS
