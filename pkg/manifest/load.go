package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied by Load.
const (
	EnvManifest = "STEEZE_LUA_MANIFEST"
	EnvScript   = "STEEZE_LUA_SCRIPT"
	EnvLogDir   = "LOG_DIR"
)

// Load is Read followed by Validate.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes a TOML manifest, or YAML when the extension is .yaml/.yml, on
// top of Default and applies environment overrides. Unknown keys are
// rejected.
func Read(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := decode(path, b, &cfg); err != nil {
		return Config{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	// a relative script path is resolved against the manifest's directory
	if p := cfg.Script.Path; p != "" && !filepath.IsAbs(p) {
		cfg.Script.Path = filepath.Join(filepath.Dir(path), p)
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

// ApplyEnv overrides file values with STEEZE_LUA_SCRIPT and LOG_DIR.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvScript); v != "" {
		cfg.Script.Path = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.Log.Dir = v
	}
}
