// Package config loads, normalizes, and validates pap CLI configuration.
//
// Settings come from a TOML file (~/.config/pap/config.toml, or pap.toml in
// the working directory) layered over repository defaults. The Config type
// converts directly into library options so commands never assemble budgets,
// limits, or storage compression by hand.
package config
