// Package logging assembles the slog loggers used by the pap CLI.
//
// Console output is slog text with byte-size fields rendered for humans
// ("1.3 MB"); JSON output keeps raw numbers for machines. The "auto" format
// picks console when the destination is a terminal.
package logging
