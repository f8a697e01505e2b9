package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "xp3"

// placeholderEmail is the value shipped in generated config files.
// MusicBrainz asks every client to identify itself, so it is rejected.
const placeholderEmail = "your-mail@mail.com"

// Config contains the program configuration
type Config struct {
	MP3Dir          string `yaml:"mp3_dir"`
	ImageDir        string `yaml:"image_dir"`
	TmpDir          string `yaml:"tmp_dir"`
	DefaultPlaylist string `yaml:"default_playlist"`
	ContactEmail    string `yaml:"contact_email"`

	Interactive bool `yaml:"interactive"`
	KeepCurrent bool `yaml:"keep_current"`
	FullUpdate  bool `yaml:"full_update"`
	UpdateArt   bool `yaml:"update_art"`
	ForceArt    bool `yaml:"force_art"`
	FetchLyrics bool `yaml:"fetch_lyrics"`

	ParallelJobs          int      `yaml:"parallel_jobs"`
	AudioFormat           string   `yaml:"audio_format"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	ArtworkProviders      []string `yaml:"artwork_providers"`

	SpotifyClientID     string `yaml:"spotify_client_id"`
	SpotifyClientSecret string `yaml:"spotify_client_secret"`

	Verbose     bool   `yaml:"verbose"`
	Debug       bool   `yaml:"debug"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MP3Dir:                xdg.UserDirs.Music,
		ImageDir:              filepath.Join(xdg.DataHome, appName, "images"),
		TmpDir:                filepath.Join(os.TempDir(), appName),
		ContactEmail:          placeholderEmail,
		FullUpdate:            true,
		UpdateArt:             true,
		ParallelJobs:          4,
		AudioFormat:           "mp3",
		RequestTimeoutSeconds: 3,
		ArtworkProviders:      []string{"musicbrainz", "itunes", "deezer"},
		SnapshotDir:           filepath.Join(xdg.CacheHome, appName, "responses"),
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.MP3Dir = ExpandHome(cfg.MP3Dir)
	cfg.ImageDir = ExpandHome(cfg.ImageDir)
	cfg.TmpDir = ExpandHome(cfg.TmpDir)
	cfg.SnapshotDir = ExpandHome(cfg.SnapshotDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	locations := []string{
		"./" + appName + ".yaml",
		"./" + appName + ".yml",
		filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, appName, "config.yml"),
		filepath.Join(xdg.Home, "."+appName+".yaml"),
		filepath.Join(xdg.Home, "."+appName+".yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

var validFormats = []string{"mp3", "m4a", "opus", "flac", "wav", "aac"}

var validArtworkProviders = map[string]bool{"musicbrainz": true, "itunes": true, "deezer": true, "spotify": true}

// Validate checks if the configuration is valid. Only the settings every
// command depends on are checked here; commands validate their own inputs.
func (c *Config) Validate() error {
	email := strings.TrimSpace(c.ContactEmail)
	if email == "" || email == placeholderEmail {
		return fmt.Errorf("contact_email must be set: MusicBrainz requires a contact address in the User-Agent")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("contact_email %q is not an email address", email)
	}

	if c.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", c.ParallelJobs)
	}
	if c.ParallelJobs > 10 {
		return fmt.Errorf("parallel jobs cannot exceed 10 (to avoid rate limiting), got %d", c.ParallelJobs)
	}

	isValid := false
	for _, format := range validFormats {
		if c.AudioFormat == format {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("unsupported audio format '%s', valid formats: %v", c.AudioFormat, validFormats)
	}

	if c.ImageDir == "" {
		return fmt.Errorf("image_dir cannot be empty")
	}
	if c.MP3Dir == "" {
		return fmt.Errorf("mp3_dir cannot be empty")
	}

	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be at least 1, got %d", c.RequestTimeoutSeconds)
	}

	for _, p := range c.ArtworkProviders {
		if !validArtworkProviders[p] {
			return fmt.Errorf("unknown artwork provider %q, valid providers: musicbrainz, itunes, deezer, spotify", p)
		}
		if p == "spotify" && (c.SpotifyClientID == "" || c.SpotifyClientSecret == "") {
			return fmt.Errorf("artwork provider spotify needs spotify_client_id and spotify_client_secret")
		}
	}

	return nil
}

// UserAgent returns the identification string sent to MusicBrainz.
func (c *Config) UserAgent(version string) string {
	return fmt.Sprintf("%s/%s ( %s )", appName, version, strings.TrimSpace(c.ContactEmail))
}

// HasArtworkProvider reports whether name is listed in artwork_providers.
func (c *Config) HasArtworkProvider(name string) bool {
	for _, p := range c.ArtworkProviders {
		if p == name {
			return true
		}
	}
	return false
}
