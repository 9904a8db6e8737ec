// Package config loads the source configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	CompanyIdentifier string `yaml:"company_identifier" validate:"required"`

	PluginOptions struct {
		// JobPosts is passed through as query params on the unfiltered
		// postings fetch, e.g. to restrict to live postings.
		JobPosts map[string]any `yaml:"job_posts"`
	} `yaml:"plugin_options"`

	Client struct {
		BaseURL             string        `yaml:"base_url" validate:"required,url"`
		UserAgent           string        `yaml:"user_agent"`
		Timeout             time.Duration `yaml:"timeout" validate:"gte=0"`
		PageSize            int           `yaml:"page_size" validate:"gte=0,lte=100"`
		RequestsPerSecond   float64       `yaml:"requests_per_second" validate:"gte=0"`
		Burst               int           `yaml:"burst" validate:"gte=0"`
		TokenKeyringAccount string        `yaml:"token_keyring_account"`
		// Token is only read from the environment.
		Token string `yaml:"-"`
	} `yaml:"client"`

	Pipeline struct {
		MaxConcurrency int    `yaml:"max_concurrency" validate:"gte=0"`
		TypePrefix     string `yaml:"type_prefix" validate:"required,alphanum"`
	} `yaml:"pipeline"`

	Output struct {
		Kind  string `yaml:"kind" validate:"oneof=jsonl sqlite"`
		Path  string `yaml:"path" validate:"required"`
		Prune bool   `yaml:"prune"`
	} `yaml:"output"`

	Logging struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// Default returns a config with every optional field set.
func Default() Config {
	var cfg Config
	cfg.Client.BaseURL = "https://api.smartrecruiters.com/v1"
	cfg.Client.Burst = 1
	cfg.Pipeline.TypePrefix = "SmartRecruiters"
	cfg.Output.Kind = "jsonl"
	cfg.Output.Path = "-"
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads path (if it exists) over the defaults, then applies SRSOURCE_*
// environment overrides. It does not validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from the environment. lookup is os.LookupEnv in
// production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("SRSOURCE_COMPANY", &cfg.CompanyIdentifier)
	str("SRSOURCE_BASE_URL", &cfg.Client.BaseURL)
	str("SRSOURCE_TOKEN", &cfg.Client.Token)
	str("SRSOURCE_OUTPUT", &cfg.Output.Kind)
	str("SRSOURCE_OUTPUT_PATH", &cfg.Output.Path)
	str("SRSOURCE_LOG_LEVEL", &cfg.Logging.Level)
	num("SRSOURCE_PAGE_SIZE", &cfg.Client.PageSize)
	num("SRSOURCE_MAX_CONCURRENCY", &cfg.Pipeline.MaxConcurrency)

	if v, ok := lookup("SRSOURCE_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("SRSOURCE_TIMEOUT: %w", err))
		} else {
			cfg.Client.Timeout = d
		}
	}
	return errors.Join(errs...)
}
