package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix prefixes every environment variable.
const DefaultEnvPrefix = "MAPCAST_"

// Source names the layers Load reads.
type Source struct {
	// File is a .toml, .yaml or .yml file. A missing file is skipped.
	File string

	// EnvFile is a .env file. A missing file is skipped.
	EnvFile string

	// Prefix defaults to DefaultEnvPrefix.
	Prefix string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a configuration from the defaults and every layer of src,
// then validates it.
func Load(src Source) (Config, error) {
	cfg := Default()

	if src.File != "" {
		var err error
		if cfg, err = LoadFile(src.File, cfg); err != nil {
			return Config{}, err
		}
	}

	prefix := src.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	if src.EnvFile != "" {
		vars, err := godotenv.Read(src.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading env file %s: %w", src.EnvFile, err)
		}
		if err := applyEnv(&cfg, prefix, src.EnvFile, func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		}); err != nil {
			return Config{}, err
		}
	}

	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, prefix, "environment", lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the settings present in the file at path onto base.
// The decoder is chosen by extension. A missing file returns base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(path, bytes.NewReader(data), base)
	case ".yaml", ".yml":
		return decodeYAML(path, bytes.NewReader(data), base)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decodeTOML(source string, r io.Reader, cfg Config) (Config, error) {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return Config{}, pe
	}
	return cfg, nil
}

func decodeYAML(source string, r io.Reader, cfg Config) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// applyEnv sets every key whose variable lookup finds.
func applyEnv(cfg *Config, prefix, source string, lookup func(string) (string, bool)) error {
	for _, key := range Keys() {
		v, ok := lookup(EnvName(prefix, key))
		if !ok {
			continue
		}
		if err := cfg.Set(key, v); err != nil {
			var ke *KeyError
			if errors.As(err, &ke) {
				ke.Source = source
			}
			return err
		}
	}
	return nil
}
