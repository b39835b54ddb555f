package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

// RootCmd is the root command for naivechain
var RootCmd = &cobra.Command{
	Use:              "naivechain",
	Short:            "naivechain node",
	TraverseChildren: true,
}
