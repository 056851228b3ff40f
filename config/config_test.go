package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/rpcframe/logging"
	"github.com/vinayprograms/rpcframe/transport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[transport]
mode = "listen"
address = "0.0.0.0:7000"
max_content_length = 1048576
shutdown_timeout = "5s"

[log]
level = "debug"
file = "/tmp/rpcframe.log"
max_size_mb = 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Transport.Mode != ModeListen {
		t.Errorf("mode = %q", cfg.Transport.Mode)
	}
	if cfg.Transport.Address != "0.0.0.0:7000" {
		t.Errorf("address = %q", cfg.Transport.Address)
	}
	if cfg.Transport.MaxContentLength != 1048576 {
		t.Errorf("max_content_length = %d", cfg.Transport.MaxContentLength)
	}
	if cfg.Transport.ShutdownTimeout.Duration != 5*time.Second {
		t.Errorf("shutdown_timeout = %v", cfg.Transport.ShutdownTimeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/rpcframe.log" || cfg.Log.MaxSizeMB != 20 {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "warn"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Mode != ModeStdio {
		t.Errorf("mode = %q, want stdio", cfg.Transport.Mode)
	}
	if cfg.Transport.ShutdownTimeout.Duration != transport.DefaultShutdownTimeout {
		t.Errorf("shutdown_timeout = %v, want default", cfg.Transport.ShutdownTimeout)
	}
	if cfg.Log.MaxSizeMB != 10 {
		t.Errorf("max_size_mb = %d, want 10", cfg.Log.MaxSizeMB)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"syntax", "[transport\nmode=", false},
		{"bad duration", "[transport]\nshutdown_timeout = \"soon\"", false},
		{"unknown mode", "[transport]\nmode = \"carrier-pigeon\"", true},
		{"unknown key", "[transport]\nmod = \"stdio\"", true},
		{"listen without address", "[transport]\nmode = \"listen\"\naddress = \"\"", true},
		{"negative limit", "[transport]\nmax_content_length = -1", true},
		{"bad level", "[log]\nlevel = \"chatty\"", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalid) = %v, want %v (err: %v)", !tt.invalid, tt.invalid, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvAddress, "10.0.0.1:9000")

	cfg, err := Load(writeConfig(t, "[transport]\nmode = \"connect\"\naddress = \"127.0.0.1:1\""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("level = %q, want env override", cfg.Log.Level)
	}
	if cfg.Transport.Address != "10.0.0.1:9000" {
		t.Errorf("address = %q, want env override", cfg.Transport.Address)
	}
}

func TestLoadDefault_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want none", path)
	}
	if cfg.Transport.Mode != ModeStdio {
		t.Errorf("mode = %q, want stdio", cfg.Transport.Mode)
	}
}

func TestLoadDefault_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(FileName, []byte("[log]\nlevel = \"debug\""), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if path != FileName {
		t.Errorf("path = %q, want %q", path, FileName)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
}

func TestStandardPaths(t *testing.T) {
	paths := StandardPaths()
	if len(paths) == 0 || paths[0] != FileName {
		t.Fatalf("paths = %v, want current directory first", paths)
	}
	for _, p := range paths[1:] {
		if !strings.HasSuffix(p, filepath.Join("rpcframe", FileName)) {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Transport.MaxContentLength = 4096
	cfg.Transport.ShutdownTimeout = Duration{2 * time.Second}
	cfg.Log.Level = "debug"
	cfg.Log.File = "out.log"

	log := logging.New()
	tc := cfg.TransportConfig(log)
	if tc.Limits.MaxContentLength != 4096 {
		t.Errorf("limit = %d", tc.Limits.MaxContentLength)
	}
	if tc.ShutdownTimeout != 2*time.Second {
		t.Errorf("shutdown timeout = %v", tc.ShutdownTimeout)
	}
	if tc.Logger != log {
		t.Error("logger not passed through")
	}

	opts := cfg.LogOptions()
	if opts.Level != logging.LevelDebug || opts.File != "out.log" || opts.MaxSizeMB != 10 {
		t.Errorf("log options = %+v", opts)
	}
}
