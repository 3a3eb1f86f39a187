// Package config handles configuration loading, parsing, and validation
// from built-in environment profiles, an optional config file and PULSE_*
// environment variables. The resulting Config is passed explicitly to the
// components that need it.
package config
