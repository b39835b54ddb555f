package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitialPeers(t *testing.T) {
	conf := NewDefaultConfig()

	if got := conf.InitialPeers(); len(got) != 0 {
		t.Fatalf("default config should have no peers, got %v", got)
	}

	conf.Peers = "ws://localhost:6001, localhost:6002,,  "

	expected := []string{"ws://localhost:6001", "localhost:6002"}
	if got := conf.InitialPeers(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("InitialPeers should be %v, not %v", expected, got)
	}
}

func TestDefaults(t *testing.T) {
	conf := NewDefaultConfig()

	if conf.HTTPAddr != ":3001" {
		t.Fatalf("HTTPAddr should be :3001, not %s", conf.HTTPAddr)
	}
	if conf.P2PAddr != ":6001" {
		t.Fatalf("P2PAddr should be :6001, not %s", conf.P2PAddr)
	}
	if conf.MaxQueue != DefaultMaxQueue {
		t.Fatalf("MaxQueue should be %d, not %d", DefaultMaxQueue, conf.MaxQueue)
	}
}

func TestLogLevel(t *testing.T) {
	if l := LogLevel("warn"); l != logrus.WarnLevel {
		t.Fatalf("warn should parse to WarnLevel, not %v", l)
	}
	if l := LogLevel("bogus"); l != logrus.DebugLevel {
		t.Fatalf("unknown levels should default to DebugLevel, not %v", l)
	}
}

func TestLogFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "naivechain")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	conf := NewDefaultConfig()
	conf.LogLevel = "info"
	conf.LogFile = filepath.Join(dir, "node.log")

	logger := conf.Logger()
	logger.Logger.Out = ioutil.Discard
	logger.WithField("height", 3).Info("hello file")

	data, err := ioutil.ReadFile(conf.LogFile)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file should contain the message, got %s", data)
	}
}

func TestResetLogger(t *testing.T) {
	conf := NewDefaultConfig()
	conf.LogLevel = "info"

	if lvl := conf.Logger().Logger.GetLevel(); lvl != logrus.InfoLevel {
		t.Fatalf("log level should be info, not %s", lvl)
	}

	conf.LogLevel = "error"
	if lvl := conf.Logger().Logger.GetLevel(); lvl != logrus.InfoLevel {
		t.Fatalf("cached logger should keep info, not %s", lvl)
	}

	conf.ResetLogger()
	if lvl := conf.Logger().Logger.GetLevel(); lvl != logrus.ErrorLevel {
		t.Fatalf("log level should be error after reset, not %s", lvl)
	}
}
