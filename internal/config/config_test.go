// ABOUTME: Tests for the preset file
// ABOUTME: Tests defaults for missing files, save/load and partial files
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8928 || cfg.Volume != 100 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

	cfg := DefaultConfig()
	cfg.ClicksDir = "/srv/clicks"
	cfg.Settings.BPM = metrodrone.Ptr(88)
	cfg.Settings.SoundType = metrodrone.Ptr("Organ")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ClicksDir != "/srv/clicks" {
		t.Errorf("clicks dir lost: %q", loaded.ClicksDir)
	}
	if loaded.Settings.BPM == nil || *loaded.Settings.BPM != 88 {
		t.Error("bpm lost")
	}
	if loaded.Settings.Note != nil {
		t.Error("unset settings should stay unset")
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"settings":{"bpm":60},"server":{"name":"Studio"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Name != "Studio" || cfg.Volume != 100 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if *cfg.Settings.BPM != 60 {
		t.Errorf("expected bpm 60, got %d", *cfg.Settings.BPM)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"settings":`), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
