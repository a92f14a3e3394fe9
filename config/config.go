package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// DefaultPaths are tried in order when Load is given no path.
var DefaultPaths = []string{"trackbot.yaml", ".trackbot.yaml"}

type APIConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type CalDAVConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Calendar string `yaml:"calendar"`
}

func (c CalDAVConfig) IsConfigured() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

type Config struct {
	Backend         string       `yaml:"backend"`
	API             APIConfig    `yaml:"api"`
	UserID          int64        `yaml:"user_id"`
	DatabasePath    string       `yaml:"database_path"`
	TimezoneName    string       `yaml:"timezone"`
	RefreshSchedule string       `yaml:"refresh_schedule"`
	PromoteSchedule string       `yaml:"promote_schedule"`
	CalDAV          CalDAVConfig `yaml:"caldav"`

	Timezone *time.Location `yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Backend:         BackendLocal,
		API:             APIConfig{Timeout: 30 * time.Second},
		UserID:          1,
		DatabasePath:    "./data/trackbot.db",
		TimezoneName:    "UTC",
		RefreshSchedule: "*/5 * * * *",
		PromoteSchedule: "* * * * *",
		Timezone:        time.UTC,
	}
}

// Load reads defaults, then the YAML file at path (or the first existing
// default path), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if path == "" {
		for _, p := range DefaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Backend, "TRACKBOT_BACKEND")
	setString(&c.API.URL, "TRACKBOT_API_URL")
	setString(&c.API.Token, "TRACKBOT_API_TOKEN")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.TimezoneName, "TIMEZONE")
	setString(&c.RefreshSchedule, "REFRESH_SCHEDULE")
	setString(&c.PromoteSchedule, "PROMOTE_SCHEDULE")
	setString(&c.CalDAV.URL, "CALDAV_URL")
	setString(&c.CalDAV.Username, "CALDAV_USERNAME")
	setString(&c.CalDAV.Password, "CALDAV_PASSWORD")
	setString(&c.CalDAV.Calendar, "CALDAV_CALENDAR")

	if v := os.Getenv("TRACKBOT_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRACKBOT_USER_ID must be a number")
		}
		c.UserID = id
	}
	return nil
}

// Validate checks the settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendLocal:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the local backend"))
		}
	case BackendRemote:
		if c.API.URL == "" {
			errs = append(errs, errors.New("TRACKBOT_API_URL is required for the remote backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	if c.UserID <= 0 {
		errs = append(errs, errors.New("TRACKBOT_USER_ID must be positive"))
	}
	if c.Timezone == nil {
		errs = append(errs, errors.New("timezone is not loaded"))
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err))
	}
	if _, err := cron.ParseStandard(c.PromoteSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid PROMOTE_SCHEDULE: %w", err))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api timeout cannot be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsRemote() bool {
	return c.Backend == BackendRemote
}
