package commands

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func TestLoadConfigFileLogSettings(t *testing.T) {
	dir, err := ioutil.TempDir("", "naivechain-config")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	logFile := filepath.Join(dir, "node.log")
	toml := fmt.Sprintf("log = \"error\"\nlog-file = %q\nmax-queue = 7\n", logFile)
	if err := ioutil.WriteFile(filepath.Join(dir, "naivechain.toml"), []byte(toml), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}

	viper.Reset()
	defer viper.Reset()
	_config = NewDefaultCLIConfig()
	defer func() { _config = NewDefaultCLIConfig() }()

	cmd := NewRunCmd()
	if err := cmd.Flags().Set("datadir", dir); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := loadConfig(cmd, nil); err != nil {
		t.Fatalf("err: %v", err)
	}

	if _config.Naivechain.MaxQueue != 7 {
		t.Fatalf("MaxQueue should be 7, not %d", _config.Naivechain.MaxQueue)
	}

	logger := _config.Naivechain.Logger()
	if lvl := logger.Logger.GetLevel(); lvl != logrus.ErrorLevel {
		t.Fatalf("log level should be error, not %s", lvl)
	}

	logger.Logger.Out = ioutil.Discard
	logger.Error("written to log-file")

	data, err := ioutil.ReadFile(logFile)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(data), "written to log-file") {
		t.Fatalf("log file should contain the error entry, got %q", data)
	}
}
