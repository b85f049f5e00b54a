package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SyncConfig connects the note panel to a remote sync server. Sync is
// disabled while Endpoint or Token is empty.
type SyncConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Token    string `yaml:"token"    json:"token"`
	Secret   string `yaml:"secret"   json:"secret"`
}

// BackupConfig drives the S3 backup command. AccessKey/SecretKey are
// optional; when absent the ambient AWS credential chain is used.
type BackupConfig struct {
	Bucket    string `yaml:"bucket"     json:"bucket"`
	Prefix    string `yaml:"prefix"     json:"prefix"`
	Region    string `yaml:"region"     json:"region"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
}

type TrackingConfig struct {
	Enable    bool   `yaml:"enable"    json:"enable"`
	Directory string `yaml:"directory" json:"directory"`
}

type Config struct {
	StoreDir  string         `yaml:"storedir"  json:"store_dir"`
	Backend   string         `yaml:"backend"   json:"backend"`
	DSN       string         `yaml:"dsn"       json:"dsn"`
	Extractor string         `yaml:"extractor" json:"extractor"`
	Sync      SyncConfig     `yaml:"sync"      json:"sync"`
	Backup    BackupConfig   `yaml:"backup"    json:"backup"`
	Tracking  TrackingConfig `yaml:"tracking"  json:"tracking"`

	home string `yaml:"-" json:"-"`
}

const (
	BackendDiskv    = "diskv"
	BackendPostgres = "postgres"
)

var validBackendNames = []string{BackendDiskv, BackendPostgres}

var ValidBackends = func() map[string]bool {
	backends := make(map[string]bool, len(validBackendNames))
	for _, backend := range validBackendNames {
		backends[backend] = true
	}

	return backends
}()

func ValidateBackend(backend string) error {
	if _, valid := ValidBackends[backend]; valid {
		return nil
	}

	return fmt.Errorf(
		"invalid backend: %q. Please choose from 'diskv' or 'postgres'.",
		backend,
	)
}

var validExtractorNames = []string{"blocks", "markdown"}

var ValidExtractors = func() map[string]bool {
	extractors := make(map[string]bool, len(validExtractorNames))
	for _, extractor := range validExtractorNames {
		extractors[extractor] = true
	}

	return extractors
}()

func ValidateExtractor(extractor string) error {
	if _, valid := ValidExtractors[extractor]; valid {
		return nil
	}

	return fmt.Errorf(
		"invalid extractor: %q. Please choose from 'blocks' or 'markdown'.",
		extractor,
	)
}

func defaultConfig(home string) *Config {
	return &Config{
		StoreDir:  filepath.Join(home, ".quire", "store"),
		Backend:   BackendDiskv,
		Extractor: "blocks",
		Tracking: TrackingConfig{
			Directory: filepath.Join(home, ".quire", "track"),
		},
		home: home,
	}
}

func (cfg *Config) ensureDefaults(home string) {
	cfg.home = home
	if cfg.StoreDir == "" {
		cfg.StoreDir = filepath.Join(home, ".quire", "store")
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendDiskv
	}
	if cfg.Extractor == "" {
		cfg.Extractor = "blocks"
	}
	if cfg.Tracking.Directory == "" {
		cfg.Tracking.Directory = filepath.Join(home, ".quire", "track")
	}
}

// Load reads the config file under home. An empty file yields the defaults;
// a missing file is an error, use EnsureConfigExists first.
func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if len(strings.TrimSpace(string(data))) == 0 {
		cfg = defaultConfig(home)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		cfg.ensureDefaults(home)
	}

	if err := ValidateBackend(cfg.Backend); err != nil {
		return nil, err
	}
	if err := ValidateExtractor(cfg.Extractor); err != nil {
		return nil, err
	}

	cfg.syncViper()
	return cfg, nil
}

// syncViper mirrors the loaded values into viper so command flags can be
// bound over them.
func (cfg *Config) syncViper() {
	viper.Set("storedir", cfg.StoreDir)
	viper.Set("backend", cfg.Backend)
	viper.Set("dsn", cfg.DSN)
	viper.Set("extractor", cfg.Extractor)
	viper.Set("sync_endpoint", cfg.Sync.Endpoint)
	viper.Set("backup_bucket", cfg.Backup.Bucket)
	viper.Set("tracking", cfg.Tracking.Enable)
}

// ChangeToken replaces the sync access token and persists the config.
func (cfg *Config) ChangeToken(token string) error {
	cfg.Sync.Token = token
	return cfg.Save()
}

func (cfg *Config) GetConfigPath() string {
	return GetConfigPath(cfg.home)
}

func (cfg *Config) Save() error {
	if err := ValidateBackend(cfg.Backend); err != nil {
		return err
	}
	if err := ValidateExtractor(cfg.Extractor); err != nil {
		return err
	}

	cfg.syncViper()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := cfg.GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}
