package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/go-homedir"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:  "test-host-abc",
		BaseDir: "/home/user/.local/share/habits",
		LogDir:  "/home/user/.local/share/habits/log",
		Store:   StoreConfig{Type: "sqlite", DataDir: "/home/user/.local/share/habits/db"},
		Remote: RemoteConfig{
			Type:       "s3",
			Name:       "backup",
			S3Bucket:   "my-habits",
			S3Prefix:   "laptop",
			S3Region:   "eu-west-1",
			S3Endpoint: "http://localhost:9000",
		},
		Log: LogConfig{Level: "debug", MaxSizeMB: 5, MaxBackups: 1},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if diff := cmp.Diff(original, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Read(t *testing.T) {
	input := `
host_id = "h1"
base_dir = "/data"

[store]
type = "kv"
kv_dir = "/data/kv"

[remote]
type = "filesystem"
name = "usb"
fs_root = "/mnt/usb/habits"
`
	m := &Manager{}
	got, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Store.Type != "kv" || got.Store.KVDir != "/data/kv" {
		t.Errorf("Store = %+v, want kv at /data/kv", got.Store)
	}
	if got.Remote.FSRoot != "/mnt/usb/habits" {
		t.Errorf("Remote.FSRoot = %q, want %q", got.Remote.FSRoot, "/mnt/usb/habits")
	}
	if got.Log.Level != "" {
		t.Errorf("Log.Level = %q, want empty", got.Log.Level)
	}

	if _, err := m.Read(strings.NewReader("host_id = ")); err == nil {
		t.Error("Read() expected error for invalid TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/habits")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.LogDir != "/data/habits/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/habits/log")
	}
	if cfg.Store.Type != "json" {
		t.Errorf("Store.Type = %q, want %q", cfg.Store.Type, "json")
	}
	if cfg.Store.Path != "/data/habits/habits.json" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "/data/habits/habits.json")
	}
	if cfg.Remote.Type != "" {
		t.Errorf("Remote.Type = %q, want empty", cfg.Remote.Type)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg := &Config{
		BaseDir: "~/habits",
		LogDir:  "/var/log/habits",
		Store:   StoreConfig{Type: "json", Path: "~/habits/habits.json"},
		Remote:  RemoteConfig{Type: "filesystem", FSRoot: "~/sync"},
	}
	if err := cfg.Expand(); err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"base_dir", cfg.BaseDir, filepath.Join(home, "habits")},
		{"log_dir", cfg.LogDir, "/var/log/habits"},
		{"store.path", cfg.Store.Path, filepath.Join(home, "habits", "habits.json")},
		{"store.kv_dir", cfg.Store.KVDir, ""},
		{"remote.fs_root", cfg.Remote.FSRoot, filepath.Join(home, "sync")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "habits.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "habits.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "habits.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Store = StoreConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Store.Type != "memory" {
			t.Errorf("Store.Type = %q, want %q", got.Store.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/habits.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
