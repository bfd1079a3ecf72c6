package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.InputFasta != "" || c.HTTPTimeout() != 0 {
		t.Fatalf("expected zero config, got %+v", c)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	body := `{"input_fasta": "in.fa", "log_level": "debug", "uniprot_url": "http://file", "http_timeout_seconds": 5, "use_seqkit": true}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEQINFO_UNIPROT_URL", "http://env")
	t.Setenv("SEQINFO_HTTP_TIMEOUT_SECONDS", "9")

	c, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.InputFasta != "in.fa" || c.LogLevel != "debug" || !c.UseSeqkit {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.UniProtURL != "http://env" {
		t.Fatalf("expected env override, got %q", c.UniProtURL)
	}
	if c.HTTPTimeout() != 9*time.Second {
		t.Fatalf("expected 9s timeout, got %v", c.HTTPTimeout())
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"api_key": "x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
