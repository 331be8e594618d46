package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, rest := parseWithFlagSet(fs, []string{"ping"})

	if cfg.Baud != 115200 {
		t.Errorf("expected Baud to be 115200, got %d", cfg.Baud)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected Timeout to be 10s, got %s", cfg.Timeout)
	}
	if cfg.ChunkSize != 512 {
		t.Errorf("expected ChunkSize to be 512, got %d", cfg.ChunkSize)
	}
	if !cfg.StatPrefetch {
		t.Error("expected StatPrefetch to default on")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to be info, got %s", cfg.LogLevel)
	}
	if len(rest) != 1 || rest[0] != "ping" {
		t.Errorf("expected remaining args [ping], got %v", rest)
	}
}

func TestParse_Flags(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, rest := parseWithFlagSet(fs, []string{
		"-port", "/dev/ttyACM0", "-baud", "230400", "-timeout", "2s",
		"-log-level", "debug", "get", "/ext/file", "out",
	})

	if cfg.Port != "/dev/ttyACM0" {
		t.Errorf("expected Port to be /dev/ttyACM0, got %s", cfg.Port)
	}
	if cfg.Baud != 230400 {
		t.Errorf("expected Baud to be 230400, got %d", cfg.Baud)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("expected Timeout to be 2s, got %s", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
	if len(rest) != 3 || rest[0] != "get" {
		t.Errorf("expected remaining args [get /ext/file out], got %v", rest)
	}
}

func TestParse_EnvFallback(t *testing.T) {
	os.Clearenv()

	os.Setenv("DEVLINK_PORT", "ws://bridge.local:8765/uart")
	os.Setenv("DEVLINK_BAUD", "57600")
	os.Setenv("DEVLINK_TIMEOUT", "30s")
	defer os.Unsetenv("DEVLINK_PORT")
	defer os.Unsetenv("DEVLINK_BAUD")
	defer os.Unsetenv("DEVLINK_TIMEOUT")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, _ := parseWithFlagSet(fs, []string{})

	if cfg.Port != "ws://bridge.local:8765/uart" {
		t.Errorf("expected Port from env, got %s", cfg.Port)
	}
	if cfg.Baud != 57600 {
		t.Errorf("expected Baud to be 57600, got %d", cfg.Baud)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout to be 30s, got %s", cfg.Timeout)
	}
}

func TestParse_FlagsOverrideEnv(t *testing.T) {
	os.Clearenv()

	os.Setenv("DEVLINK_PORT", "/dev/ttyUSB9")
	defer os.Unsetenv("DEVLINK_PORT")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, _ := parseWithFlagSet(fs, []string{"-port", "/dev/ttyACM1"})

	if cfg.Port != "/dev/ttyACM1" {
		t.Errorf("expected flag to override env, got %s", cfg.Port)
	}
}

func TestParse_BadEnvIgnored(t *testing.T) {
	os.Clearenv()

	os.Setenv("DEVLINK_BAUD", "fast")
	defer os.Unsetenv("DEVLINK_BAUD")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, _ := parseWithFlagSet(fs, []string{})

	if cfg.Baud != 115200 {
		t.Errorf("expected default Baud, got %d", cfg.Baud)
	}
}
