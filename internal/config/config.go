package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultURL    = "https://pt.wikipedia.org/wiki/Lista_de_plantas_usadas_em_fitoterapia"
	DefaultMarker = "div.mw-heading.mw-heading2"
	DefaultFile   = "extract.json5"

	FetcherChrome = "chrome"
	FetcherHTTP   = "http"
)

type Config struct {
	URL           string
	Marker        string // CSS selector of the element right before the target list
	Fetcher       string
	UserAgent     string
	Headless      bool
	Debug         bool
	DryRun        bool
	GlobalTimeout time.Duration // Overall timeout
	ActionTimeout time.Duration // Timeout for navigation
	ListTimeout   time.Duration // Upper bound on waiting for the list to render
	Store         Store
}

// Store holds the connection parameters of the catalog table.
type Store struct {
	Driver            string
	DSN               string // when set, Host/User/Password/Database are ignored
	Host              string
	User              string
	Password          string
	Database          string
	Table             string
	KeyColumn         string
	DescriptionColumn string
	Timeout           time.Duration // per query; zero means no timeout
}

func Default() *Config {
	return &Config{
		URL:           DefaultURL,
		Marker:        DefaultMarker,
		Fetcher:       FetcherChrome,
		Headless:      true,
		GlobalTimeout: 5 * time.Minute,
		ActionTimeout: 30 * time.Second,
		ListTimeout:   20 * time.Second,
		Store: Store{
			Driver:            "mysql",
			Host:              "127.0.0.1:3306",
			Table:             "plantas_medicinais",
			KeyColumn:         "nome",
			DescriptionColumn: "funcao",
		},
	}
}

// Load builds the configuration from defaults, the optional json5 file at
// path (merged with its .local sibling), the .env files and the environment,
// in increasing order of priority.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			f.apply(cfg)
		}
	}

	loadEnvFiles()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles() {
	// Variables already present in the environment win over the files.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func applyEnv(cfg *Config) error {
	setString(&cfg.URL, "EXTRACT_URL")
	setString(&cfg.Marker, "EXTRACT_MARKER")
	setString(&cfg.Fetcher, "EXTRACT_FETCHER")
	setString(&cfg.UserAgent, "EXTRACT_USER_AGENT")

	setString(&cfg.Store.Driver, "DB_DRIVER")
	setString(&cfg.Store.DSN, "DB_DSN")
	setString(&cfg.Store.Host, "DB_HOST")
	setString(&cfg.Store.User, "DB_USER")
	setString(&cfg.Store.Password, "DB_PASSWORD")
	setString(&cfg.Store.Database, "DB_DATABASE")
	setString(&cfg.Store.Table, "DB_TABLE")

	if v := os.Getenv("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS value %q: %w", v, err)
		}
		cfg.Headless = b
	}
	if v := os.Getenv("EXTRACT_LIST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EXTRACT_LIST_TIMEOUT value %q: %w", v, err)
		}
		cfg.ListTimeout = d
	}
	if v := os.Getenv("DB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DB_TIMEOUT value %q: %w", v, err)
		}
		cfg.Store.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.URL) == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if strings.TrimSpace(c.Marker) == "" {
		errs = append(errs, errors.New("marker is required"))
	}
	if c.Fetcher != FetcherChrome && c.Fetcher != FetcherHTTP {
		errs = append(errs, fmt.Errorf("unknown fetcher %q (want %s or %s)", c.Fetcher, FetcherChrome, FetcherHTTP))
	}
	if c.ListTimeout <= 0 {
		errs = append(errs, errors.New("list timeout must be positive"))
	}
	if c.GlobalTimeout <= 0 {
		errs = append(errs, errors.New("global timeout must be positive"))
	}
	if c.Store.Driver == "" {
		errs = append(errs, errors.New("store driver is required"))
	}
	return errors.Join(errs...)
}
