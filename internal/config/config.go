package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	InputFasta         string `json:"input_fasta"`
	OutputJSON         string `json:"output_json"`
	LogFile            string `json:"log_file"`
	LogLevel           string `json:"log_level"`
	UniProtURL         string `json:"uniprot_url"`
	EnsemblURL         string `json:"ensembl_url"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds"`
	UseSeqkit          bool   `json:"use_seqkit"`
	SeqkitPath         string `json:"seqkit_path"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// A missing file is not an error: defaults are returned. Environment variables
// SEQINFO_UNIPROT_URL, SEQINFO_ENSEMBL_URL and SEQINFO_HTTP_TIMEOUT_SECONDS
// override the file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	var c Config
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// not fatal: keep defaults
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return &c, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() {
	c.UniProtURL = getEnv("SEQINFO_UNIPROT_URL", c.UniProtURL)
	c.EnsemblURL = getEnv("SEQINFO_ENSEMBL_URL", c.EnsemblURL)
	if s := os.Getenv("SEQINFO_HTTP_TIMEOUT_SECONDS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			c.HTTPTimeoutSeconds = v
		}
	}
}

// HTTPTimeout returns the configured request timeout, or zero for the client default.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
