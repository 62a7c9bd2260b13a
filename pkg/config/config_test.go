package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEMSCAN_CONFIG_DIR", dir)

	c, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, configFile)); err != nil {
		t.Fatalf("default config file not created: %v", err)
	}
	if c.GetValueType() != "int32" || c.GetByteOrder() != "little" {
		t.Fatalf("unexpected defaults %q %q", c.GetValueType(), c.GetByteOrder())
	}
	if c.GetMonitorInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected monitor interval %v", c.GetMonitorInterval())
	}
	if c.GetMaxListCandidates() != 20 {
		t.Fatalf("unexpected list limit %d", c.GetMaxListCandidates())
	}

	// the second load reads the file created by the first one
	if _, err := LoadConfig(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memscan.yml")
	err := os.WriteFile(path, []byte(`value-type: float32
byte-order: big
monitor-interval: 250ms
max-list-candidates: 0
aliases:
  list: ["ls"]
  exit: ["q!"]
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.GetValueType() != "float32" || c.GetByteOrder() != "big" {
		t.Fatalf("unexpected value settings %q %q", c.GetValueType(), c.GetByteOrder())
	}
	if c.GetMonitorInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected monitor interval %v", c.GetMonitorInterval())
	}
	if c.GetMaxListCandidates() != 0 {
		t.Fatalf("an explicit zero must be kept, got %d", c.GetMaxListCandidates())
	}
	want := map[string][]string{"list": {"ls"}, "exit": {"q!"}}
	if diff := cmp.Diff(want, c.Aliases); diff != "" {
		t.Fatalf("aliases mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfigFrom(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("valu-type: int8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFrom(path); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestSaveConfig(t *testing.T) {
	t.Setenv("MEMSCAN_CONFIG_DIR", t.TempDir())
	n := 5
	in := &Config{Aliases: map[string][]string{"list": {"ls"}}, ValueType: "uint16", MonitorInterval: time.Second, MaxListCandidates: &n}
	if err := SaveConfig(in); err != nil {
		t.Fatal(err)
	}
	out, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveConfigToLoadedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEMSCAN_CONFIG_DIR", filepath.Join(dir, "default"))
	path := filepath.Join(dir, "memscan.yml")
	if err := os.WriteFile(path, []byte("value-type: int8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	c.ByteOrder = "big"
	if err := SaveConfig(c); err != nil {
		t.Fatal(err)
	}
	c, err = LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.GetValueType() != "int8" || c.GetByteOrder() != "big" {
		t.Fatalf("unexpected value settings %q %q", c.GetValueType(), c.GetByteOrder())
	}
	if _, err := os.Stat(filepath.Join(dir, "default", configFile)); !os.IsNotExist(err) {
		t.Fatalf("default config file written: %v", err)
	}
}

func TestNilConfigDefaults(t *testing.T) {
	var c *Config
	if c.GetValueType() != DefaultValueType || c.GetMaxListCandidates() != DefaultMaxListCandidates {
		t.Fatal("a nil config must return the defaults")
	}
}
