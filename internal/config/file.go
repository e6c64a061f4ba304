package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// File is the on-disk shape of the configuration. Durations are in seconds.
type File struct {
	URL                string     `json:"url"`
	Marker             string     `json:"marker"`
	Fetcher            string     `json:"fetcher"`
	UserAgent          string     `json:"user_agent"`
	Headless           *bool      `json:"headless"`
	TimeoutSeconds     int        `json:"timeout_seconds"`
	NavigationSeconds  int        `json:"navigation_seconds"`
	ListTimeoutSeconds int        `json:"list_timeout_seconds"`
	Store              *StoreFile `json:"store"`
}

type StoreFile struct {
	Driver            string `json:"driver"`
	DSN               string `json:"dsn"`
	Host              string `json:"host"`
	User              string `json:"user"`
	Password          string `json:"password"`
	Database          string `json:"database"`
	Table             string `json:"table"`
	KeyColumn         string `json:"key_column"`
	DescriptionColumn string `json:"description_column"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
}

// ReadFile reads name and merges <name>.local.<ext> over it when present.
// It returns os.ErrNotExist when neither file exists.
func ReadFile(name string) (File, error) {
	var out File
	found := false

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		found = true
	}

	localPath := localName(name)
	local, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override File
		if err := json5.Unmarshal(local, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", localPath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func localName(name string) string {
	dir := filepath.Dir(name)
	ext := filepath.Ext(name)
	prefix := strings.TrimSuffix(filepath.Base(name), ext)
	return filepath.Join(dir, prefix+".local"+ext)
}

func (f File) apply(cfg *Config) {
	setIf(&cfg.URL, f.URL)
	setIf(&cfg.Marker, f.Marker)
	setIf(&cfg.Fetcher, f.Fetcher)
	setIf(&cfg.UserAgent, f.UserAgent)
	if f.Headless != nil {
		cfg.Headless = *f.Headless
	}
	setSeconds(&cfg.GlobalTimeout, f.TimeoutSeconds)
	setSeconds(&cfg.ActionTimeout, f.NavigationSeconds)
	setSeconds(&cfg.ListTimeout, f.ListTimeoutSeconds)

	if s := f.Store; s != nil {
		setIf(&cfg.Store.Driver, s.Driver)
		setIf(&cfg.Store.DSN, s.DSN)
		setIf(&cfg.Store.Host, s.Host)
		setIf(&cfg.Store.User, s.User)
		setIf(&cfg.Store.Password, s.Password)
		setIf(&cfg.Store.Database, s.Database)
		setIf(&cfg.Store.Table, s.Table)
		setIf(&cfg.Store.KeyColumn, s.KeyColumn)
		setIf(&cfg.Store.DescriptionColumn, s.DescriptionColumn)
		setSeconds(&cfg.Store.Timeout, s.TimeoutSeconds)
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSeconds(dst *time.Duration, secs int) {
	if secs > 0 {
		*dst = time.Duration(secs) * time.Second
	}
}
