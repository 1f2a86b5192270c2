// Package config loads database credentials from a properties or YAML file,
// with environment variables taking precedence over file values.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	KeyURL      = "url"
	KeyUsername = "username"
	KeyPassword = "password"
)

var ErrMissingKey = errors.New("missing required key")

// Error reports a configuration file that is missing, unreadable or
// malformed.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load configuration %q: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Config struct {
	URL      string `yaml:"url" env:"DB_URL, overwrite"`
	Username string `yaml:"username" env:"DB_USERNAME, overwrite"`
	Password string `yaml:"password" env:"DB_PASSWORD, overwrite"`

	// Properties holds every key read from the file, including the ones
	// mapped onto the fields above.
	Properties map[string]string `yaml:"-"`
}

func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	default:
		cfg, err = loadProperties(path)
	}
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("process envconfig: %w", err)
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w %q", ErrMissingKey, KeyURL)
	}
	return cfg, nil
}

func loadProperties(path string) (*Config, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}

	return &Config{
		URL:        props.GetString(KeyURL, ""),
		Username:   props.GetString(KeyUsername, ""),
		Password:   props.GetString(KeyPassword, ""),
		Properties: props.Map(),
	}, nil
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := &Config{Properties: make(map[string]string, len(raw))}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	for k, v := range raw {
		cfg.Properties[k] = fmt.Sprint(v)
	}
	return cfg, nil
}
