package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.ContactEmail = "me@example.com"
		cfg.MP3Dir = "/tmp/music"
		cfg.ImageDir = "/tmp/images"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "placeholder email",
			modify:  func(c *Config) { c.ContactEmail = placeholderEmail },
			wantErr: true,
		},
		{
			name:    "empty email",
			modify:  func(c *Config) { c.ContactEmail = "  " },
			wantErr: true,
		},
		{
			name:    "email without at sign",
			modify:  func(c *Config) { c.ContactEmail = "example.com" },
			wantErr: true,
		},
		{
			name:    "parallel jobs 0",
			modify:  func(c *Config) { c.ParallelJobs = 0 },
			wantErr: true,
		},
		{
			name:    "parallel jobs 11",
			modify:  func(c *Config) { c.ParallelJobs = 11 },
			wantErr: true,
		},
		{
			name:   "parallel jobs 10",
			modify: func(c *Config) { c.ParallelJobs = 10 },
		},
		{
			name:    "invalid format",
			modify:  func(c *Config) { c.AudioFormat = "wma" },
			wantErr: true,
		},
		{
			name:    "empty image dir",
			modify:  func(c *Config) { c.ImageDir = "" },
			wantErr: true,
		},
		{
			name:    "empty mp3 dir",
			modify:  func(c *Config) { c.MP3Dir = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.RequestTimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "unknown artwork provider",
			modify:  func(c *Config) { c.ArtworkProviders = []string{"lastfm"} },
			wantErr: true,
		},
		{
			name:    "spotify without credentials",
			modify:  func(c *Config) { c.ArtworkProviders = []string{"spotify"} },
			wantErr: true,
		},
		{
			name: "spotify with credentials",
			modify: func(c *Config) {
				c.ArtworkProviders = []string{"musicbrainz", "spotify"}
				c.SpotifyClientID = "id"
				c.SpotifyClientSecret = "secret"
			},
		},
		{
			name:   "no artwork providers",
			modify: func(c *Config) { c.ArtworkProviders = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.FullUpdate {
		t.Error("FullUpdate should default to true")
	}
	if cfg.KeepCurrent {
		t.Error("KeepCurrent should default to false")
	}
	if cfg.RequestTimeoutSeconds != 3 {
		t.Errorf("RequestTimeoutSeconds = %d, want 3", cfg.RequestTimeoutSeconds)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `parallel_jobs: 8
audio_format: flac
contact_email: me@example.com
keep_current: true
image_dir: ~/pics
artwork_providers: [itunes]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.ParallelJobs != 8 {
		t.Errorf("ParallelJobs = %d, want 8", cfg.ParallelJobs)
	}
	if cfg.AudioFormat != "flac" {
		t.Errorf("AudioFormat = %q, want %q", cfg.AudioFormat, "flac")
	}
	if !cfg.KeepCurrent {
		t.Error("KeepCurrent = false, want true")
	}
	if !cfg.FullUpdate {
		t.Error("FullUpdate should keep its default when absent from the file")
	}
	if want := filepath.Join(xdg.Home, "pics"); cfg.ImageDir != want {
		t.Errorf("ImageDir = %q, want %q", cfg.ImageDir, want)
	}
	if !cfg.HasArtworkProvider("itunes") || cfg.HasArtworkProvider("deezer") {
		t.Errorf("ArtworkProviders = %v, want [itunes]", cfg.ArtworkProviders)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.ParallelJobs != 4 {
		t.Errorf("expected default ParallelJobs=4, got %d", cfg.ParallelJobs)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("parallel_jobs: [oops"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.ContactEmail = "me@example.com"
	cfg.ParallelJobs = 2

	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}
	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if got.ContactEmail != cfg.ContactEmail || got.ParallelJobs != 2 {
		t.Errorf("reloaded config = %+v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := xdg.Home
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	cfg := Config{ContactEmail: " me@example.com "}
	if got, want := cfg.UserAgent("1.0"), "xp3/1.0 ( me@example.com )"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
