package commands

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mosaicnetworks/naivechain/src/config"
	"github.com/mosaicnetworks/naivechain/src/naivechain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRunCmd returns the command that starts a naivechain node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNaivechain,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNaivechain(cmd *cobra.Command, args []string) error {
	engine := naivechain.NewNaivechain(&_config.Naivechain)

	if err := engine.Init(); err != nil {
		_config.Naivechain.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigintCh
		_config.Naivechain.Logger().Debug("Reacting to SIGINT - Shutdown")
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.Naivechain.DataDir, "Directory of the optional naivechain.toml configuration file")
	cmd.Flags().String("log", _config.Naivechain.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Naivechain.LogFile, "Optional file receiving JSON logs")

	// Network
	cmd.Flags().StringP("p2p-listen", "l", _config.Naivechain.P2PAddr, "Listen IP:Port for websocket peers")
	cmd.Flags().StringP("peers", "p", _config.Naivechain.Peers, "Comma-separated list of peers to connect to")
	cmd.Flags().DurationP("timeout", "t", _config.Naivechain.Timeout, "Websocket dial and write timeout")
	cmd.Flags().Int("max-queue", _config.Naivechain.MaxQueue, "Outbound messages buffered per peer")
	cmd.Flags().Int64("max-message-size", _config.Naivechain.MaxMessageSize, "Largest incoming websocket frame in bytes")

	// Service
	cmd.Flags().StringP("http-listen", "s", _config.Naivechain.HTTPAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.Naivechain.NoService, "Disable HTTP service")

	cmd.Flags().Duration("stats-interval", _config.Naivechain.StatsInterval, "Time between stats logs, 0 to disable")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	_config.Naivechain.HTTPAddr = portToAddr(_config.Naivechain.HTTPAddr)
	_config.Naivechain.P2PAddr = portToAddr(_config.Naivechain.P2PAddr)

	logFields := logrus.Fields{
		"naivechain.DataDir":        _config.Naivechain.DataDir,
		"naivechain.LogLevel":       _config.Naivechain.LogLevel,
		"naivechain.LogFile":        _config.Naivechain.LogFile,
		"naivechain.HTTPAddr":       _config.Naivechain.HTTPAddr,
		"naivechain.P2PAddr":        _config.Naivechain.P2PAddr,
		"naivechain.Peers":          _config.Naivechain.InitialPeers(),
		"naivechain.NoService":      _config.Naivechain.NoService,
		"naivechain.MaxQueue":       _config.Naivechain.MaxQueue,
		"naivechain.MaxMessageSize": _config.Naivechain.MaxMessageSize,
		"naivechain.Timeout":        _config.Naivechain.Timeout,
		"naivechain.StatsInterval":  _config.Naivechain.StatsInterval,
	}

	_config.Naivechain.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Environment variables used by javascript naivechain deployments
	for key, env := range map[string]string{
		"http-listen": "HTTP_PORT",
		"p2p-listen":  "P2P_PORT",
		"peers":       "PEERS",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/naivechain.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigFile) // name of config file (without extension)
	viper.AddConfigPath(_config.Naivechain.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Naivechain.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Naivechain.Logger().Debugf("No config file found in: %s", _config.Naivechain.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// log and log-file may have changed since the logger was first built
	_config.Naivechain.ResetLogger()

	return nil
}

// portToAddr turns a bare port number, as found in HTTP_PORT and P2P_PORT,
// into a listen address on all interfaces.
func portToAddr(addr string) string {
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	for _, r := range addr {
		if r < '0' || r > '9' {
			return addr
		}
	}
	return ":" + addr
}
