package commands

import (
	"github.com/mosaicnetworks/naivechain/src/config"
)

// CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Naivechain config.Config `mapstructure:",squash"`
}

// NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Naivechain: *config.NewDefaultConfig(),
	}
}
