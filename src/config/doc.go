// Package config defines the configuration for a naivechain node.
//
// Regardless of how naivechain is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. The command
// line additionally reads an optional naivechain.toml, naivechain.yaml or
// naivechain.json file from Config.DataDir, and the HTTP_PORT, P2P_PORT and
// PEERS environment variables.
package config
