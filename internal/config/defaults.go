package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/dalc/pkg/dal"
)

// Default configuration values.
const (
	DefaultSystemPackage = dal.DefaultSystemPackage
	DefaultMaxDepth      = dal.DefaultMaxDepth
	DefaultOutput        = OutputSQL
)

func defaults() map[string]any {
	return map[string]any{
		"schema":         "",
		"base_package":   "",
		"system_package": DefaultSystemPackage,
		"max_depth":      DefaultMaxDepth,
		"output":         DefaultOutput,
		"verbose":        false,
	}
}

// Validate checks values the loader cannot check by type alone.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("unknown output format %q (expected one of %v)", c.Output, OutputFormats)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	return nil
}
