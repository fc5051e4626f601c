package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/xleiu/VenueSearch/src/db"
	"github.com/xleiu/VenueSearch/src/foursquare"
)

const (
	BackendFoursquare = "foursquare"
	BackendElastic    = "elastic"
	BackendDemo       = "demo"

	LocationStatic = "static"
	LocationRemote = "remote"
)

// Config holds the server, backend and location provider settings.
type Config struct {
	Addr       string   `toml:"addr"`
	Backend    string   `toml:"backend"`
	Location   string   `toml:"location"`
	Template   string   `toml:"template"`
	Categories []string `toml:"categories"`
	Verbose    bool     `toml:"verbose"`

	// HashPassword, when set, makes the binary print its bcrypt hash and exit.
	HashPassword string `toml:"-"`

	Static struct {
		Lat       float64 `toml:"lat"`
		Lon       float64 `toml:"lon"`
		AutoGrant bool    `toml:"auto_grant"`
	} `toml:"static"`

	Demo struct {
		DelayMillis int `toml:"delay_ms"`
	} `toml:"demo"`

	Foursquare foursquare.Config `toml:"foursquare"`
	Elastic    db.Config         `toml:"elastic"`

	Auth struct {
		// Users maps usernames to bcrypt hashes.
		Users      map[string]string `toml:"users"`
		TTLMinutes int               `toml:"ttl_minutes"`
		SigningKey string            `toml:"-"`
	} `toml:"auth"`
}

// New returns a configuration with sensible defaults.
func New() *Config {
	c := &Config{
		Addr:       ":8888",
		Backend:    BackendDemo,
		Location:   LocationStatic,
		Template:   "./src/templates/template.html",
		Foursquare: foursquare.DefaultConfig(),
		Elastic: db.Config{
			URL:     "http://localhost:9200",
			Index:   "venues",
			Schema:  "./src/templates/schema.json",
			Limit:   20,
			Timeout: 10,
		},
	}
	c.Static.Lat = 60.2365327
	c.Static.Lon = 24.782747
	c.Static.AutoGrant = true
	c.Demo.DelayMillis = 2000
	c.Auth.TTLMinutes = 60
	return c
}

// LoadFile parses a TOML configuration file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// LoadEnv reads secrets from the environment, after loading envFile if it exists.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: %w", err)
		}
	}

	if v := os.Getenv("FOURSQUARE_CLIENT_ID"); v != "" {
		c.Foursquare.ClientID = v
	}
	if v := os.Getenv("FOURSQUARE_CLIENT_SECRET"); v != "" {
		c.Foursquare.ClientSecret = v
	}
	c.Auth.SigningKey = os.Getenv("MY_SIGNING_KEY")
	return nil
}

// ParseFlags updates configuration from command-line flags.
func (c *Config) ParseFlags(args []string) (string, error) {
	fs := flag.NewFlagSet("venuesearch", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "config.toml", "Path to configuration file")

	addr := fs.String("addr", "", "Listen address")
	backend := fs.String("backend", "", "Venue backend: foursquare, elastic or demo")
	loc := fs.String("location", "", "Location provider: static or remote")
	esURL := fs.String("elastic-url", "", "Elasticsearch URL")
	data := fs.String("data", "", "TSV file to index on start (elastic backend)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	hash := fs.String("hash-password", "", "Print the bcrypt hash of a password for [auth.users] and exit")

	if err := fs.Parse(args); err != nil {
		return "", err
	}

	isSet := func(name string) bool {
		found := false
		fs.Visit(func(f *flag.Flag) {
			if f.Name == name {
				found = true
			}
		})
		return found
	}

	if isSet("addr") {
		c.Addr = *addr
	}
	if isSet("backend") {
		c.Backend = *backend
	}
	if isSet("location") {
		c.Location = *loc
	}
	if isSet("elastic-url") {
		c.Elastic.URL = *esURL
	}
	if isSet("data") {
		c.Elastic.Data = *data
	}
	if isSet("verbose") {
		c.Verbose = *verbose
	}
	if isSet("hash-password") {
		c.HashPassword = *hash
	}

	return configPath, nil
}

// Finalize expands paths and checks the combination of settings.
func (c *Config) Finalize() error {
	expand := func(p string) string {
		if len(p) > 0 && p[0] == '~' {
			if home, err := os.UserHomeDir(); err == nil {
				return filepath.Join(home, p[1:])
			}
		}
		return p
	}
	c.Template = expand(c.Template)
	c.Elastic.Schema = expand(c.Elastic.Schema)
	c.Elastic.Data = expand(c.Elastic.Data)

	switch c.Backend {
	case BackendDemo, BackendElastic:
	case BackendFoursquare:
		if c.Foursquare.ClientID == "" || c.Foursquare.ClientSecret == "" {
			return errors.New("config: foursquare backend needs FOURSQUARE_CLIENT_ID and FOURSQUARE_CLIENT_SECRET")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}

	switch c.Location {
	case LocationStatic, LocationRemote:
	default:
		return fmt.Errorf("config: unknown location provider %q", c.Location)
	}

	if c.Auth.SigningKey == "" {
		return errors.New("config: MY_SIGNING_KEY environment variable is not set")
	}
	return nil
}
