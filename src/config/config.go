package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/naivechain/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// DefaultConfigFile is the base name of the optional configuration file looked
// up in the data directory.
const DefaultConfigFile = "naivechain"

// Default configuration values.
const (
	DefaultLogLevel      = "debug"
	DefaultHTTPAddr      = ":3001"
	DefaultP2PAddr       = ":6001"
	DefaultPeers         = ""
	DefaultMaxQueue      = 64
	DefaultMaxMessage    = 16 << 20
	DefaultTimeout       = 5 * time.Second
	DefaultStatsInterval = 10 * time.Second
)

// Config contains all the configuration properties of a naivechain node.
type Config struct {
	// DataDir is the directory where the optional configuration file is
	// looked up. Nothing is persisted there.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, additionally writes JSON formatted logs to this file.
	LogFile string `mapstructure:"log-file"`

	// HTTPAddr is the address:port of the HTTP control surface.
	HTTPAddr string `mapstructure:"http-listen"`

	// P2PAddr is the address:port where this node accepts websocket
	// connections from other nodes.
	P2PAddr string `mapstructure:"p2p-listen"`

	// Peers is a comma-separated list of nodes to connect to at startup.
	// Entries are host:port or full ws:// URLs.
	Peers string `mapstructure:"peers"`

	// NoService disables the HTTP control surface.
	NoService bool `mapstructure:"no-service"`

	// MaxQueue is the number of outbound messages buffered per connection.
	// Messages sent to a full queue are dropped.
	MaxQueue int `mapstructure:"max-queue"`

	// MaxMessageSize is the largest incoming websocket frame, in bytes. A peer
	// sending a larger frame is disconnected.
	MaxMessageSize int64 `mapstructure:"max-message-size"`

	// Timeout applies to websocket dials and writes.
	Timeout time.Duration `mapstructure:"timeout"`

	// StatsInterval is the period at which node stats are logged at debug
	// level. Zero disables it.
	StatsInterval time.Duration `mapstructure:"stats-interval"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:        DefaultDataDir(),
		LogLevel:       DefaultLogLevel,
		HTTPAddr:       DefaultHTTPAddr,
		P2PAddr:        DefaultP2PAddr,
		Peers:          DefaultPeers,
		MaxQueue:       DefaultMaxQueue,
		MaxMessageSize: DefaultMaxMessage,
		Timeout:        DefaultTimeout,
		StatsInterval:  DefaultStatsInterval,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests. Listeners bind to ephemeral local ports.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.HTTPAddr = "127.0.0.1:0"
	config.P2PAddr = "127.0.0.1:0"
	config.StatsInterval = 0
	config.logger = common.NewTestLogger(t, level)
	return config
}

// InitialPeers splits Peers into a list of addresses, ignoring blanks.
func (c *Config) InitialPeers() []string {
	res := []string{}
	for _, p := range strings.Split(c.Peers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

// Logger returns a formatted logrus Entry, with prefix set to "naivechain".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.AddHook(lfshook.NewHook(
				lfshook.PathMap{
					logrus.DebugLevel: c.LogFile,
					logrus.InfoLevel:  c.LogFile,
					logrus.WarnLevel:  c.LogFile,
					logrus.ErrorLevel: c.LogFile,
					logrus.FatalLevel: c.LogFile,
					logrus.PanicLevel: c.LogFile,
				},
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "naivechain")
}

// ResetLogger drops the cached logger. The next call to Logger builds a new
// one from LogLevel and LogFile.
func (c *Config) ResetLogger() {
	c.logger = nil
}

// DefaultDataDir return the default directory name for top-level naivechain
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Naivechain")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Naivechain")
		} else {
			return filepath.Join(home, ".naivechain")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
