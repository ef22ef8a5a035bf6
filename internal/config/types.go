// Package config loads the dalc tool configuration from defaults, a YAML
// file, DALC_ environment variables and command-line flags.
package config

// Config holds the dalc tool configuration.
type Config struct {
	Schema        string `koanf:"schema"`
	BasePackage   string `koanf:"base_package"`
	SystemPackage string `koanf:"system_package"`
	MaxDepth      int    `koanf:"max_depth"`
	Output        string `koanf:"output"`
	Verbose       bool   `koanf:"verbose"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Output formats.
const (
	OutputSQL   = "sql"
	OutputJSON  = "json"
	OutputDAL   = "dal"
	OutputTable = "table"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{OutputSQL, OutputJSON, OutputDAL, OutputTable}
