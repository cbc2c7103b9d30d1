// Package config provides configuration management for facewatch.
// It loads configuration from YAML files with sensible defaults and lets
// the environment (optionally via a .env file) override the gallery store
// connection parameters.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvMongoUsername   = "MONGO_USERNAME"
	EnvMongoPassword   = "MONGO_PASSWORD"
	EnvMongoHostname   = "MONGO_HOSTNAME"
	EnvMongoPort       = "MONGO_PORT"
	EnvMongoDatabase   = "MONGO_DATABASE"
	EnvMongoCollection = "MONGO_COLLECTION"
	EnvGallerySealKey  = "GALLERY_SEAL_KEY"
)

// Detector names accepted by recognition.detector.
const (
	DetectorHOG  = "hog"
	DetectorCNN  = "cnn"
	DetectorAuto = "auto"
)

// Config holds all facewatch configuration.
type Config struct {
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Gallery     GalleryConfig     `yaml:"gallery"`
	Display     DisplayConfig     `yaml:"display"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CameraConfig holds capture device settings.
type CameraConfig struct {
	// Device is either a numeric index ("0") or a device path.
	Device string `yaml:"device"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

// RecognitionConfig holds face matching settings.
type RecognitionConfig struct {
	// Tolerance is the acceptance threshold on descriptor distance.
	Tolerance       float64 `yaml:"tolerance"`
	DownscaleFactor float64 `yaml:"downscale_factor"`
	Detector        string  `yaml:"detector"`
	ModelPath       string  `yaml:"model_path"`
}

// PipelineConfig holds capture loop settings.
type PipelineConfig struct {
	// MaxCaptureFailures stops the loop after that many consecutive frame
	// acquisition failures. Zero means never.
	MaxCaptureFailures int `yaml:"max_capture_failures"`
}

// GalleryConfig holds the gallery store connection.
type GalleryConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SealKey        string        `yaml:"-"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	Enabled     bool   `yaml:"enabled"`
	WindowTitle string `yaml:"window_title"`
	StopKey     string `yaml:"stop_key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Camera: CameraConfig{
			Device: "0",
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Recognition: RecognitionConfig{
			Tolerance:       0.6,
			DownscaleFactor: 0.25,
			Detector:        DetectorHOG,
			ModelPath:       filepath.Join(homeDir, ".local/share/facewatch/models"),
		},
		Gallery: GalleryConfig{
			Host:           "localhost",
			Port:           27017,
			Database:       "face_recognition",
			Collection:     "faces",
			ConnectTimeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			Enabled:     true,
			WindowTitle: "Face Recognition",
			StopKey:     "q",
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   filepath.Join(homeDir, ".local/share/facewatch/facewatch.log"),
			Format: "text",
		},
	}
}

// Load loads configuration from the specified file.
// On error the defaults are returned alongside it.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, err
	}

	return config, nil
}

// LoadDefault tries to load configuration from default locations.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("/etc/facewatch/facewatch.yaml"); err == nil {
		return Load("/etc/facewatch/facewatch.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	userConfig := filepath.Join(homeDir, ".config/facewatch/facewatch.yaml")
	if _, err := os.Stat(userConfig); err == nil {
		return Load(userConfig)
	}

	return DefaultConfig(), nil
}

// LoadEnv reads an optional .env file from the working directory and then
// applies the process environment on top of c.
func (c *Config) LoadEnv() error {
	_ = godotenv.Load()
	return c.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides gallery settings with the MONGO_* variables and the seal
// key. Unset or empty variables leave the current value alone.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvMongoUsername, &c.Gallery.Username)
	str(EnvMongoPassword, &c.Gallery.Password)
	str(EnvMongoHostname, &c.Gallery.Host)
	str(EnvMongoDatabase, &c.Gallery.Database)
	str(EnvMongoCollection, &c.Gallery.Collection)
	str(EnvGallerySealKey, &c.Gallery.SealKey)

	if v, ok := lookup(EnvMongoPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMongoPort, v, err)
		}
		c.Gallery.Port = port
	}
	return nil
}

// URI builds the MongoDB connection string. Credentials are only included
// when both username and password are set.
func (g GalleryConfig) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(g.Host, strconv.Itoa(g.Port)),
		Path:   "/" + g.Database,
	}
	if g.Username != "" && g.Password != "" {
		u.User = url.UserPassword(g.Username, g.Password)
	}
	return u.String()
}

// Redacted returns URI with the password masked, for logs.
func (g GalleryConfig) Redacted() string {
	if g.Password == "" {
		return g.URI()
	}
	g.Password = "xxxxx"
	return g.URI()
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Camera.Device == "" {
		return fmt.Errorf("camera device must be set")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid camera resolution: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("invalid camera FPS: %d", c.Camera.FPS)
	}

	if c.Recognition.Tolerance <= 0 || c.Recognition.Tolerance > 1 {
		return fmt.Errorf("tolerance must be in (0, 1], got %f", c.Recognition.Tolerance)
	}
	if c.Recognition.DownscaleFactor <= 0 || c.Recognition.DownscaleFactor > 1 {
		return fmt.Errorf("downscale_factor must be in (0, 1], got %f", c.Recognition.DownscaleFactor)
	}
	switch c.Recognition.Detector {
	case DetectorHOG, DetectorCNN, DetectorAuto:
	default:
		return fmt.Errorf("invalid detector: %s (must be hog, cnn, or auto)", c.Recognition.Detector)
	}

	if c.Pipeline.MaxCaptureFailures < 0 {
		return fmt.Errorf("max_capture_failures must not be negative, got %d", c.Pipeline.MaxCaptureFailures)
	}

	if c.Gallery.Host == "" {
		return fmt.Errorf("gallery host must be set")
	}
	if c.Gallery.Port <= 0 || c.Gallery.Port > 65535 {
		return fmt.Errorf("invalid gallery port: %d", c.Gallery.Port)
	}
	if c.Gallery.Database == "" || c.Gallery.Collection == "" {
		return fmt.Errorf("gallery database and collection must be set")
	}
	if c.Gallery.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %s", c.Gallery.ConnectTimeout)
	}

	if c.Display.Enabled && len(c.Display.StopKey) != 1 {
		return fmt.Errorf("stop_key must be a single character, got %q", c.Display.StopKey)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// ExpandPaths expands all paths in the configuration.
func (c *Config) ExpandPaths() {
	c.Recognition.ModelPath = ExpandPath(c.Recognition.ModelPath)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// Resolve loads the configuration used by the command line tools: the file
// at path (or the default locations when path is empty), then .env and the
// environment, with paths expanded. The result is validated.
func Resolve(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = Load(path)
	} else {
		cfg, err = LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
