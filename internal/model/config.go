package model

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultStudentID identifies the single local student when none is
// configured.
const DefaultStudentID = "11111111-1111-1111-1111-111111111111"

// RemoteConfig selects the remote row store.
type RemoteConfig struct {
	// URL is the root of the row store REST endpoint.
	URL string `mapstructure:"url" yaml:"url"`

	// Key is the access credential sent with every request. When empty
	// it is looked up in the system keyring.
	Key string `mapstructure:"key" yaml:"key"`

	// StudentID scopes every row read and written.
	StudentID string `mapstructure:"student_id" yaml:"student_id"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StorageConfig locates local data.
type StorageConfig struct {
	DBPath   string `mapstructure:"db_path" yaml:"db_path"`
	PhotoDir string `mapstructure:"photo_dir" yaml:"photo_dir"`
	LogPath  string `mapstructure:"log_path" yaml:"log_path"`
}

// HabitConfig lists the tracked habits.
type HabitConfig struct {
	Keys []string `mapstructure:"keys" yaml:"keys"`
}

// MonitorConfig controls the connectivity probe.
type MonitorConfig struct {
	ProbeIntervalSec int `mapstructure:"probe_interval_sec" yaml:"probe_interval_sec"`
}

// RolloverConfig controls the daily habit reset.
type RolloverConfig struct {
	// Cron is a standard five-field schedule.
	Cron string `mapstructure:"cron" yaml:"cron"`
}

// ProfileConfig is the local student's display profile.
type ProfileConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Avatar string `mapstructure:"avatar" yaml:"avatar"`
}

// ReportConfig says where the daily report is delivered. The IMAP
// password lives in the keyring.
type ReportConfig struct {
	IMAPHost string   `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort string   `mapstructure:"imap_port" yaml:"imap_port"`
	Username string   `mapstructure:"username" yaml:"username"`
	TLS      bool     `mapstructure:"tls" yaml:"tls"`
	Mailbox  string   `mapstructure:"mailbox" yaml:"mailbox"`
	From     string   `mapstructure:"from" yaml:"from"`
	To       []string `mapstructure:"to" yaml:"to"`
}

// Enabled reports whether a mailbox is configured.
func (r ReportConfig) Enabled() bool {
	return r.IMAPHost != "" && r.Username != ""
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote   RemoteConfig   `mapstructure:"remote" yaml:"remote"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Habits   HabitConfig    `mapstructure:"habits" yaml:"habits"`
	Monitor  MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	Rollover RolloverConfig `mapstructure:"rollover" yaml:"rollover"`
	Profile  ProfileConfig  `mapstructure:"profile" yaml:"profile"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// RemoteEnabled reports whether the remote settings are usable. A missing
// or malformed URL or key keeps the app in local-only mode.
func (c *AppConfig) RemoteEnabled() bool {
	return ValidRemoteURL(c.Remote.URL) && ValidRemoteKey(c.Remote.Key)
}

// ValidRemoteURL reports whether raw is an absolute http(s) URL.
func ValidRemoteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ValidRemoteKey reports whether key looks like a signed JWT access key.
func ValidRemoteKey(key string) bool {
	key = strings.TrimSpace(key)
	return strings.HasPrefix(key, "eyJ") && strings.Count(key, ".") == 2
}

// DefaultConfigDir returns ~/.config/winterbreak.
func DefaultConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "winterbreak")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/winterbreak/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Remote: RemoteConfig{
			StudentID:  DefaultStudentID,
			TimeoutSec: 15,
		},
		Storage: StorageConfig{
			DBPath:   filepath.Join(dir, "winterbreak.db"),
			PhotoDir: filepath.Join(dir, "photos"),
			LogPath:  filepath.Join(dir, "winterbreak.log"),
		},
		Habits:   HabitConfig{Keys: append([]string(nil), DefaultHabitKeys...)},
		Monitor:  MonitorConfig{ProbeIntervalSec: 30},
		Rollover: RolloverConfig{Cron: "0 0 * * *"},
		Profile:  ProfileConfig{Name: "Student", Avatar: "🥷"},
		Report:   ReportConfig{IMAPPort: "993", TLS: true, Mailbox: "Drafts"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// WINTERBREAK_* environment variables override file values. If the file does
// not exist, defaults (plus environment) are used.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WINTERBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv can see every key.
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.key", "")
	v.SetDefault("remote.student_id", def.Remote.StudentID)
	v.SetDefault("remote.timeout_sec", def.Remote.TimeoutSec)
	v.SetDefault("storage.db_path", def.Storage.DBPath)
	v.SetDefault("storage.photo_dir", def.Storage.PhotoDir)
	v.SetDefault("storage.log_path", def.Storage.LogPath)
	v.SetDefault("habits.keys", def.Habits.Keys)
	v.SetDefault("monitor.probe_interval_sec", def.Monitor.ProbeIntervalSec)
	v.SetDefault("rollover.cron", def.Rollover.Cron)
	v.SetDefault("profile.name", def.Profile.Name)
	v.SetDefault("profile.avatar", def.Profile.Avatar)
	v.SetDefault("report.imap_host", "")
	v.SetDefault("report.imap_port", def.Report.IMAPPort)
	v.SetDefault("report.username", "")
	v.SetDefault("report.tls", def.Report.TLS)
	v.SetDefault("report.mailbox", def.Report.Mailbox)
	v.SetDefault("report.from", "")
	v.SetDefault("report.to", []string{})

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize(def)
	return cfg, nil
}

// normalize fills zero values and expands ~ in paths.
func (c *AppConfig) normalize(def *AppConfig) {
	c.Remote.URL = strings.TrimRight(strings.TrimSpace(c.Remote.URL), "/")
	c.Remote.Key = strings.TrimSpace(c.Remote.Key)
	if _, err := uuid.Parse(c.Remote.StudentID); err != nil {
		c.Remote.StudentID = def.Remote.StudentID
	}
	if c.Remote.TimeoutSec <= 0 {
		c.Remote.TimeoutSec = def.Remote.TimeoutSec
	}
	if len(c.Habits.Keys) == 0 {
		c.Habits.Keys = def.Habits.Keys
	}
	if c.Report.IMAPPort == "" {
		c.Report.IMAPPort = def.Report.IMAPPort
	}
	if c.Report.Mailbox == "" {
		c.Report.Mailbox = def.Report.Mailbox
	}
	if c.Report.From == "" {
		c.Report.From = c.Report.Username
	}
	if c.Monitor.ProbeIntervalSec <= 0 {
		c.Monitor.ProbeIntervalSec = def.Monitor.ProbeIntervalSec
	}
	if c.Rollover.Cron == "" {
		c.Rollover.Cron = def.Rollover.Cron
	}

	c.Storage.DBPath = expandPath(c.Storage.DBPath, def.Storage.DBPath)
	c.Storage.PhotoDir = expandPath(c.Storage.PhotoDir, def.Storage.PhotoDir)
	c.Storage.LogPath = expandPath(c.Storage.LogPath, def.Storage.LogPath)
}

func expandPath(p, fallback string) string {
	if p == "" {
		return fallback
	}
	if p == ":memory:" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The remote key is never written;
// it belongs in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	remote := cfg.Remote
	remote.Key = ""
	v.Set("remote", remote)
	v.Set("storage", cfg.Storage)
	v.Set("habits", cfg.Habits)
	v.Set("monitor", cfg.Monitor)
	v.Set("rollover", cfg.Rollover)
	v.Set("profile", cfg.Profile)
	v.Set("report", cfg.Report)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
