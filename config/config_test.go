package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadMissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, &Config{}) {
		t.Errorf("config = %+v, want zero value", cfg)
	}
}

func TestLoadParsesDurationsAndSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log-level: debug
data-root: /var/lib/vivarium
api:
  base-url: http://localhost:8080/v1
  key: sk-test
sandbox:
  name: my-sandbox
  image: vivarium-agent:latest
  memory: 2g
  cpus: 1.5
  stop-grace: 10s
  exec-timeout: 45s
observer:
  interval: 30s
  backoff: 5s
  history-cap: 10
  vision-model: gpt-4o
whisper:
  interval: 30m
  log-cap: 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.API.BaseURL != "http://localhost:8080/v1" || cfg.API.Key != "sk-test" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Sandbox.Memory != "2g" || cfg.Sandbox.CPUs != 1.5 {
		t.Errorf("Sandbox = %+v", cfg.Sandbox)
	}
	if got := cfg.Sandbox.StopGrace.Std(); got != 10*time.Second {
		t.Errorf("StopGrace = %v, want 10s", got)
	}
	if got := cfg.Sandbox.ExecTimeout.Std(); got != 45*time.Second {
		t.Errorf("ExecTimeout = %v, want 45s", got)
	}
	if got := cfg.Observer.Interval.Std(); got != 30*time.Second {
		t.Errorf("Observer.Interval = %v, want 30s", got)
	}
	if cfg.Observer.HistoryCap != 10 || cfg.Observer.VisionModel != "gpt-4o" {
		t.Errorf("Observer = %+v", cfg.Observer)
	}
	if got := cfg.Whisper.Interval.Std(); got != 30*time.Minute {
		t.Errorf("Whisper.Interval = %v, want 30m", got)
	}
	if cfg.Whisper.LogCap != 500 {
		t.Errorf("Whisper.LogCap = %d, want 500", cfg.Whisper.LogCap)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("observer:\n  interval: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load succeeded, want error")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded, want error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		LogLevel: "info",
		DataRoot: "/tmp/vivarium-data",
		Sandbox: Sandbox{
			Name:        "roundtrip",
			Image:       "img:1",
			StopGrace:   Duration(10 * time.Second),
			ExecTimeout: Duration(time.Minute),
		},
		Observer: Observer{Interval: Duration(45 * time.Second)},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestDurationMarshalsAsString(t *testing.T) {
	data, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{D: Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "d: 1m30s" {
		t.Errorf("yaml = %q, want d: 1m30s", got)
	}
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg := &Config{}
	if got := cfg.APIKey(); got != "sk-from-env" {
		t.Errorf("APIKey() = %q, want env fallback", got)
	}

	cfg.API.Key = "sk-explicit"
	if got := cfg.APIKey(); got != "sk-explicit" {
		t.Errorf("APIKey() = %q, want explicit key to win", got)
	}
}

func TestContainerNameDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ContainerName(); got != DefaultContainerName {
		t.Errorf("ContainerName() = %q, want %q", got, DefaultContainerName)
	}

	cfg.Sandbox.Name = "custom"
	if got := cfg.ContainerName(); got != "custom" {
		t.Errorf("ContainerName() = %q, want custom", got)
	}
}

func TestPathRespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	want := filepath.Join("/tmp/xdg-config", "vivarium", "config.yaml")
	if got := Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestDataPathsHangOffRoot(t *testing.T) {
	cfg := &Config{DataRoot: "/data/viv"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"snapshots", cfg.SnapshotsDir(), "/data/viv/snapshots"},
		{"vocabulary", cfg.VocabularyPath(), "/data/viv/vocabulary.json"},
		{"observations", cfg.ObservationLogPath(), "/data/viv/logs/observations.jsonl"},
		{"decisions", cfg.DecisionLogPath(), "/data/viv/logs/decisions.jsonl"},
		{"injections", cfg.InjectionLogPath(), "/data/viv/logs/injections.json"},
		{"shared", cfg.SharedDir(), "/data/viv/shared"},
		{"whisper", cfg.WhisperPath(), "/data/viv/shared/whisper.txt"},
		{"audit", cfg.AuditDBPath(), "/data/viv/audit.db"},
	}
	for _, tc := range tests {
		if tc.got != filepath.FromSlash(tc.want) {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestRootRespectsXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	cfg := &Config{}
	want := filepath.Join("/tmp/xdg-data", "vivarium")
	if got := cfg.Root(); got != want {
		t.Errorf("Root() = %q, want %q", got, want)
	}

	cfg.DataRoot = "/explicit"
	if got := cfg.Root(); got != "/explicit" {
		t.Errorf("Root() = %q, want explicit root to win", got)
	}
}

func TestWhisperPathOverride(t *testing.T) {
	cfg := &Config{DataRoot: "/data/viv"}
	cfg.Whisper.Path = "/mnt/shared/whisper.txt"

	if got := cfg.WhisperPath(); got != "/mnt/shared/whisper.txt" {
		t.Errorf("WhisperPath() = %q, want the override", got)
	}
}
