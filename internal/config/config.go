package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"propcal/internal/auth"
	"propcal/internal/ics"
	appLog "propcal/internal/log"
	"propcal/internal/slot"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys: PROPCAL_BUSINESS_HOURS__OPEN=08:00.
const EnvPrefix = "PROPCAL_"

// JobOff in place of a cron expression turns a background job off.
const JobOff = "off"

// DefaultPath is used when no --config flag is given.
const DefaultPath = "/etc/propcal/config.yaml"

// CalendarConfig is one subscribed community ICS feed.
type CalendarConfig struct {
	ID   string `koanf:"id" yaml:"id" json:"id"`
	Name string `koanf:"name" yaml:"name" json:"name"`
	URL  string `koanf:"url" yaml:"url" json:"url"`
}

// UserConfig maps a bearer token to an account.
type UserConfig struct {
	ID    string `koanf:"id" yaml:"id" json:"id"`
	Email string `koanf:"email" yaml:"email" json:"email"`
	Role  string `koanf:"role" yaml:"role" json:"role"`
	Token string `koanf:"token" yaml:"token" json:"-"`
}

// BasicAuthConfig puts the whole listener behind HTTP Basic Auth, except
// /health.
type BasicAuthConfig struct {
	Username string `koanf:"username" yaml:"username" json:"username"`
	Password string `koanf:"password" yaml:"password" json:"-"`
}

type BusinessHours struct {
	Open  string `koanf:"open" yaml:"open" json:"open"`
	Close string `koanf:"close" yaml:"close" json:"close"`
}

type Config struct {
	Listen   string `koanf:"listen" yaml:"listen" json:"listen"`
	Timezone string `koanf:"timezone" yaml:"timezone" json:"timezone"`
	LogLevel string `koanf:"log_level" yaml:"log_level" json:"log_level"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `koanf:"week_start" yaml:"week_start" json:"week_start"`

	// DayBoundary is the latest start the slot finder will return.
	DayBoundary              string        `koanf:"day_boundary" yaml:"day_boundary" json:"day_boundary"`
	DefaultDurationMinutes   int           `koanf:"default_duration_minutes" yaml:"default_duration_minutes" json:"default_duration_minutes"`
	BusinessHours            BusinessHours `koanf:"business_hours" yaml:"business_hours" json:"business_hours"`
	WorkOrderDurationMinutes int           `koanf:"work_order_duration_minutes" yaml:"work_order_duration_minutes" json:"work_order_duration_minutes"`

	// Cron expressions for the background jobs. JobOff disables a job;
	// empty means the default schedule.
	OverdueSweep     string `koanf:"overdue_sweep" yaml:"overdue_sweep" json:"overdue_sweep"`
	CommunityRefresh string `koanf:"community_refresh" yaml:"community_refresh" json:"community_refresh"`

	CommunityHorizonDays int              `koanf:"community_horizon_days" yaml:"community_horizon_days" json:"community_horizon_days"`
	CommunityCalendars   []CalendarConfig `koanf:"community_calendars" yaml:"community_calendars" json:"community_calendars"`

	PrefsDBPath string `koanf:"prefs_db_path" yaml:"prefs_db_path" json:"prefs_db_path"`
	ICSCacheDir string `koanf:"ics_cache_dir" yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// Seed drives the mock data provider; 0 seeds from the clock.
	Seed int64 `koanf:"seed" yaml:"seed" json:"seed"`

	Users            []UserConfig     `koanf:"users" yaml:"users" json:"users"`
	SuperAdminEmails []string         `koanf:"super_admin_emails" yaml:"super_admin_emails" json:"super_admin_emails"`
	BasicAuth        *BasicAuthConfig `koanf:"basic_auth" yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns the configuration written on first run. The
// single admin account gets a freshly generated token.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	c.Users = []UserConfig{
		{ID: "admin", Email: "admin@example.com", Role: string(auth.RoleSeniorOperator), Token: newToken()},
	}
	return c
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Normalize fills zero values with defaults and resets values that do not
// parse, so a hand-edited file never leaves the service without a setting.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = "sunday"
	}
	if _, err := slot.ParseClock(c.DayBoundary); err != nil {
		c.DayBoundary = slot.FormatClock(slot.DefaultBoundary)
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = slot.DefaultDuration
	}
	if _, err := slot.ParseWindow(c.BusinessHours.Open, c.BusinessHours.Close); err != nil {
		c.BusinessHours = BusinessHours{Open: "09:00", Close: "17:00"}
	}
	if c.WorkOrderDurationMinutes <= 0 {
		c.WorkOrderDurationMinutes = 120
	}
	c.OverdueSweep = jobSpec(c.OverdueSweep, "*/5 * * * *")
	c.CommunityRefresh = jobSpec(c.CommunityRefresh, "*/30 * * * *")
	if c.CommunityHorizonDays <= 0 {
		c.CommunityHorizonDays = 60
	}
	if c.CommunityCalendars == nil {
		c.CommunityCalendars = []CalendarConfig{}
	}
	if c.PrefsDBPath == "" {
		c.PrefsDBPath = "./var/prefs.db"
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "./var/ics-cache"
	}
	if c.SuperAdminEmails == nil {
		c.SuperAdminEmails = []string{}
	}
}

func jobSpec(spec, def string) string {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return def
	case strings.EqualFold(spec, JobOff):
		return JobOff
	}
	return spec
}

// JobEnabled reports whether spec schedules a job.
func JobEnabled(spec string) bool {
	return spec != "" && !strings.EqualFold(strings.TrimSpace(spec), JobOff)
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.Local
}

// Boundary is DayBoundary in minutes after midnight.
func (c *Config) Boundary() int {
	if m, err := slot.ParseClock(c.DayBoundary); err == nil {
		return m
	}
	return slot.DefaultBoundary
}

func (c *Config) Window() slot.Window {
	w, err := slot.ParseWindow(c.BusinessHours.Open, c.BusinessHours.Close)
	if err != nil {
		w, _ = slot.ParseWindow("09:00", "17:00")
	}
	return w
}

func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func (c *Config) Calendars() []ics.Calendar {
	out := make([]ics.Calendar, 0, len(c.CommunityCalendars))
	for _, cc := range c.CommunityCalendars {
		out = append(out, ics.Calendar{ID: cc.ID, Name: cc.Name, URL: cc.URL})
	}
	return out
}

// AuthUsers converts Users, rejecting unknown roles.
func (c *Config) AuthUsers() ([]auth.User, error) {
	out := make([]auth.User, 0, len(c.Users))
	for _, u := range c.Users {
		role := auth.ParseRole(u.Role)
		if role == auth.RoleUnknown {
			return nil, fmt.Errorf("user %q: unknown role %q", u.ID, u.Role)
		}
		out = append(out, auth.User{ID: u.ID, Email: u.Email, Role: string(role), Token: u.Token})
	}
	return out, nil
}

// Load reads path, then overlays PROPCAL_* environment variables.
//
// A missing file is created with DefaultConfig (0600) and the defaults
// are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		def := DefaultConfig()
		if err := Save(path, def); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		// The only time the token is printed; it lives in the 0600 file after this.
		appLog.Warn("wrote default config with a generated admin token",
			"path", path, "user", def.Users[0].ID, "token", def.Users[0].Token)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes cfg as YAML through a temp file and rename; the result is
// 0600 since it carries tokens.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".propcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
