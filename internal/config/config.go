// Package config loads runtime settings from embedded defaults, an optional
// INI file, a .env file and STUDYCOACH_* environment variables.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

//go:embed defaults/config
var defaultsFS embed.FS

const envPrefix = "STUDYCOACH_"

const (
	DayBoundaryUTC   = "utc"
	DayBoundaryLocal = "local"
)

type RuntimeConfig struct {
	DBPath               string
	LogFile              string
	APIURL               string
	APITimeout           time.Duration
	RolloverInterval     time.Duration
	ToastTTL             time.Duration
	SchedulerBuffer      int
	DayBoundary          string
	DesktopNotifications bool
	WebhookURLs          []string
	WebhookTimeout       time.Duration
	ExportDir            string
	NoColor              bool
}

// Default returns the settings from the embedded defaults file.
func Default() RuntimeConfig {
	data, err := defaultsFS.ReadFile("defaults/config")
	if err != nil {
		panic(fmt.Sprintf("read embedded defaults: %v", err))
	}
	cfg, err := apply(RuntimeConfig{}, data)
	if err != nil {
		panic(fmt.Sprintf("parse embedded defaults: %v", err))
	}
	return cfg
}

// DefaultPath is ~/.config/studycoach/config.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "studycoach", "config")
}

// LoadFile overlays the INI file at path on base. A missing file is not an
// error when optional is set.
func LoadFile(base RuntimeConfig, path string, optional bool) (RuntimeConfig, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	return apply(base, data)
}

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load runs the whole chain: defaults, INI file, .env, environment.
func Load(path string) (RuntimeConfig, error) {
	optional := path == ""
	if optional {
		path = DefaultPath()
	}
	cfg, err := LoadFile(Default(), path, optional)
	if err != nil {
		return RuntimeConfig{}, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return RuntimeConfig{}, err
	}
	cfg = FromEnv(cfg)
	return cfg, cfg.Validate()
}

func (c RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db_path is required")
	}
	if c.RolloverInterval <= 0 {
		return fmt.Errorf("config: rollover_interval must be positive, got %s", c.RolloverInterval)
	}
	switch c.DayBoundary {
	case DayBoundaryUTC, DayBoundaryLocal:
	default:
		return fmt.Errorf("config: day_boundary must be %q or %q, got %q", DayBoundaryUTC, DayBoundaryLocal, c.DayBoundary)
	}
	return nil
}

// Location is the zone used to derive calendar dates for the completion sets.
func (c RuntimeConfig) Location() *time.Location {
	if c.DayBoundary == DayBoundaryLocal {
		return time.Local
	}
	return time.UTC
}

func apply(base RuntimeConfig, data []byte) (RuntimeConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}
	cfg := base
	section := file.Section("")

	if key, err := section.GetKey("db_path"); err == nil {
		cfg.DBPath = expandTilde(key.String())
	}
	if key, err := section.GetKey("log_file"); err == nil {
		cfg.LogFile = expandTilde(key.String())
	}
	if key, err := section.GetKey("api_url"); err == nil {
		cfg.APIURL = key.String()
	}
	if key, err := section.GetKey("day_boundary"); err == nil {
		cfg.DayBoundary = strings.ToLower(key.String())
	}
	if key, err := section.GetKey("export_dir"); err == nil {
		cfg.ExportDir = expandTilde(key.String())
	}
	if key, err := section.GetKey("webhook_urls"); err == nil {
		cfg.WebhookURLs = splitList(key.String())
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"api_timeout", &cfg.APITimeout},
		{"rollover_interval", &cfg.RolloverInterval},
		{"toast_ttl", &cfg.ToastTTL},
		{"webhook_timeout", &cfg.WebhookTimeout},
	}
	for _, d := range durations {
		key, err := section.GetKey(d.name)
		if err != nil {
			continue
		}
		val, durErr := key.Duration()
		if durErr != nil {
			return base, fmt.Errorf("invalid %s: %w", d.name, durErr)
		}
		if val < 0 {
			return base, fmt.Errorf("invalid %s: must be non-negative, got %s", d.name, val)
		}
		*d.dst = val
	}

	if key, err := section.GetKey("scheduler_buffer"); err == nil {
		val, intErr := key.Int()
		if intErr != nil {
			return base, fmt.Errorf("invalid scheduler_buffer: %w", intErr)
		}
		if val <= 0 {
			return base, fmt.Errorf("invalid scheduler_buffer: must be positive, got %d", val)
		}
		cfg.SchedulerBuffer = val
	}
	if key, err := section.GetKey("desktop_notifications"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return base, fmt.Errorf("invalid desktop_notifications: %w", boolErr)
		}
		cfg.DesktopNotifications = val
	}
	if key, err := section.GetKey("no_color"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return base, fmt.Errorf("invalid no_color: %w", boolErr)
		}
		cfg.NoColor = val
	}
	return cfg, nil
}

// FromEnv applies STUDYCOACH_* overrides. Unparseable values are ignored.
func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("API_URL"); ok {
		cfg.APIURL = v
	}
	if v, ok := getEnvDuration("API_TIMEOUT"); ok && v > 0 {
		cfg.APITimeout = v
	}
	if v, ok := getEnvDuration("ROLLOVER_INTERVAL"); ok && v > 0 {
		cfg.RolloverInterval = v
	}
	if v, ok := getEnvDuration("TOAST_TTL"); ok && v > 0 {
		cfg.ToastTTL = v
	}
	if v, ok := getEnvInt("SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("DAY_BOUNDARY"); ok {
		cfg.DayBoundary = strings.ToLower(v)
	}
	if v, ok := getEnvBool("DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvString("WEBHOOK_URLS"); ok {
		cfg.WebhookURLs = splitList(v)
	}
	if v, ok := getEnvDuration("WEBHOOK_TIMEOUT"); ok && v > 0 {
		cfg.WebhookTimeout = v
	}
	if v, ok := getEnvString("EXPORT_DIR"); ok {
		cfg.ExportDir = v
	}
	if v, ok := getEnvBool("NO_COLOR"); ok {
		cfg.NoColor = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
