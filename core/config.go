package core

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds understood by the image pipeline.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
	BackendA1111  = "a1111"
)

// Default configuration values.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 5000
	DefaultOutputDir       = "outputs"
	DefaultOutputFile      = "generated.png"
	DefaultLogFile         = "app.log"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBackend       = BackendLocal
	DefaultModelPath     = "models/sd-v1-5.safetensors"
	DefaultModelID       = "runwayml/stable-diffusion-v1-5"
	DefaultGuidanceScale = 7.5
	DefaultSampler       = "Euler a"

	DefaultOpenAIURL        = "https://api.openai.com/v1"
	DefaultOpenAIImageModel = "dall-e-2"
	DefaultA1111URL         = "http://127.0.0.1:7860"
)

// Config holds all configuration values
type Config struct {
	// HTTP server
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// Output artifact
	OutputDir  string
	OutputFile string

	// Logging
	DevMode  bool
	LogFile  string
	LogLevel string // empty means dev/prod default

	// Image pipeline
	Backend        string  // local, openai or a1111
	ModelPath      string  // model file for the local backend
	ModelID        string  // model name, empty picks a per-backend default (see ResolvedModelID)
	APIURL         string  // base URL for remote backends
	APIKey         string  // bearer key for the openai backend
	GuidanceScale  float64 // classifier-free guidance used for every generation
	NegativePrompt string
	Seed           int64 // -1 picks a random seed per call
	Warmup         bool  // run a 1-step pass before each generation, local backend only
	Sampler        string
	Timeout        time.Duration // remote backend HTTP timeout, zero disables
	VerifyChecksum bool

	AllowSelfSignedCerts bool
}

// fileConfig mirrors Config for the optional YAML file.
// Pointer fields distinguish "unset" from zero values.
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            *int   `yaml:"port"`
		ShutdownTimeout *int   `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`
	Output struct {
		Dir  string `yaml:"dir"`
		File string `yaml:"file"`
	} `yaml:"output"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Pipeline struct {
		Backend        string   `yaml:"backend"`
		ModelPath      string   `yaml:"model_path"`
		ModelID        string   `yaml:"model_id"`
		APIURL         string   `yaml:"api_url"`
		GuidanceScale  *float64 `yaml:"guidance_scale"`
		NegativePrompt string   `yaml:"negative_prompt"`
		Seed           *int64   `yaml:"seed"`
		Warmup         *bool    `yaml:"warmup"`
		Sampler        string   `yaml:"sampler"`
		TimeoutSeconds *int     `yaml:"timeout_seconds"`
		VerifyChecksum *bool    `yaml:"verify_checksum"`
	} `yaml:"pipeline"`
}

// DefaultConfig returns a Config populated with defaults only.
func DefaultConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		ShutdownTimeout: DefaultShutdownTimeout,
		OutputDir:       DefaultOutputDir,
		OutputFile:      DefaultOutputFile,
		LogFile:         DefaultLogFile,
		Backend:         DefaultBackend,
		ModelPath:       DefaultModelPath,
		GuidanceScale:   DefaultGuidanceScale,
		Seed:            -1,
		Warmup:          true,
		Sampler:         DefaultSampler,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by SDWEB_CONFIG_FILE, and environment variables, in that order.
// The .env file is loaded by the caller before this runs.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("SDWEB_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays values from a YAML config file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigFileMissing(path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ErrInvalidConfigFile(path, err.Error())
	}

	setString(&c.Host, fc.Server.Host)
	if fc.Server.Port != nil {
		c.Port = *fc.Server.Port
	}
	if fc.Server.ShutdownTimeout != nil {
		c.ShutdownTimeout = time.Duration(*fc.Server.ShutdownTimeout) * time.Second
	}
	setString(&c.OutputDir, fc.Output.Dir)
	setString(&c.OutputFile, fc.Output.File)
	setString(&c.LogFile, fc.Log.File)
	setString(&c.LogLevel, fc.Log.Level)

	p := fc.Pipeline
	setString(&c.Backend, p.Backend)
	setString(&c.ModelPath, p.ModelPath)
	setString(&c.ModelID, p.ModelID)
	setString(&c.APIURL, p.APIURL)
	setString(&c.NegativePrompt, p.NegativePrompt)
	setString(&c.Sampler, p.Sampler)
	if p.GuidanceScale != nil {
		c.GuidanceScale = *p.GuidanceScale
	}
	if p.Seed != nil {
		c.Seed = *p.Seed
	}
	if p.Warmup != nil {
		c.Warmup = *p.Warmup
	}
	if p.TimeoutSeconds != nil {
		c.Timeout = time.Duration(*p.TimeoutSeconds) * time.Second
	}
	if p.VerifyChecksum != nil {
		c.VerifyChecksum = *p.VerifyChecksum
	}
	return nil
}

// applyEnv overlays environment variables. Unset or unparsable variables keep
// the current value.
func (c *Config) applyEnv() {
	c.Host = GetEnvOrDefault("SDWEB_HOST", c.Host)
	c.Port = ParseIntEnv("SDWEB_PORT", c.Port)
	c.ShutdownTimeout = ParseDurationEnv("SDWEB_SHUTDOWN_TIMEOUT", int(c.ShutdownTimeout/time.Second))
	c.OutputDir = GetEnvOrDefault("SDWEB_OUTPUT_DIR", c.OutputDir)
	c.OutputFile = GetEnvOrDefault("SDWEB_OUTPUT_FILE", c.OutputFile)

	c.DevMode = ParseBoolEnv("DEV_MODE", c.DevMode)
	c.LogFile = GetEnvOrDefault("LOG_FILE", c.LogFile)
	c.LogLevel = GetEnvOrDefault("LOG_LEVEL", c.LogLevel)

	c.Backend = strings.ToLower(GetEnvOrDefault("SD_BACKEND", c.Backend))
	c.ModelPath = GetEnvOrDefault("SD_MODEL_PATH", c.ModelPath)
	c.ModelID = GetEnvOrDefault("SD_MODEL_ID", c.ModelID)
	c.APIURL = GetEnvOrDefault("SD_API_URL", c.APIURL)
	c.APIKey = GetEnvOrDefault("SD_API_KEY", c.APIKey)
	c.GuidanceScale = ParseFloat64Env("SD_GUIDANCE_SCALE", c.GuidanceScale)
	c.NegativePrompt = GetEnvOrDefault("SD_NEGATIVE_PROMPT", c.NegativePrompt)
	c.Seed = ParseInt64Env("SD_SEED", c.Seed)
	c.Warmup = ParseBoolEnv("SD_WARMUP", c.Warmup)
	c.Sampler = GetEnvOrDefault("SD_SAMPLER", c.Sampler)
	c.Timeout = ParseDurationEnv("SD_TIMEOUT_SECONDS", int(c.Timeout/time.Second))
	c.VerifyChecksum = ParseBoolEnv("SD_VERIFY_CHECKSUM", c.VerifyChecksum)

	c.AllowSelfSignedCerts = ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", c.AllowSelfSignedCerts)
}

// Validate checks values that would otherwise fail late, at bind or build time.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidValue("SDWEB_PORT", strconv.Itoa(c.Port), "must be between 1 and 65535")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrMissingConfig("SDWEB_OUTPUT_DIR")
	}
	if strings.TrimSpace(c.OutputFile) == "" || filepath.Base(c.OutputFile) != c.OutputFile {
		return ErrInvalidValue("SDWEB_OUTPUT_FILE", c.OutputFile, "must be a plain file name")
	}
	switch c.Backend {
	case BackendLocal, BackendOpenAI, BackendA1111:
	default:
		return ErrUnknownBackend(c.Backend)
	}
	if c.GuidanceScale < 1.0 || c.GuidanceScale > 30.0 {
		return ErrInvalidValue("SD_GUIDANCE_SCALE", strconv.FormatFloat(c.GuidanceScale, 'f', -1, 64),
			"must be between 1.0 and 30.0")
	}
	if c.Timeout < 0 {
		return ErrInvalidValue("SD_TIMEOUT_SECONDS", c.Timeout.String(), "must not be negative")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// OutputPath returns the fixed relative path of the generated image.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

// ResolvedAPIURL returns APIURL or the default for the configured backend.
func (c *Config) ResolvedAPIURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	switch c.Backend {
	case BackendOpenAI:
		return DefaultOpenAIURL
	case BackendA1111:
		return DefaultA1111URL
	}
	return ""
}

// ResolvedModelID returns ModelID or the default for the configured backend.
// The openai backend gets an images model; a1111 keeps whatever checkpoint is
// loaded on the server.
func (c *Config) ResolvedModelID() string {
	if c.ModelID != "" {
		return c.ModelID
	}
	switch c.Backend {
	case BackendOpenAI:
		return DefaultOpenAIImageModel
	case BackendA1111:
		return ""
	}
	return DefaultModelID
}

// IsRemoteBackend reports whether the pipeline talks to an HTTP backend.
func (c *Config) IsRemoteBackend() bool {
	return c.Backend == BackendOpenAI || c.Backend == BackendA1111
}

// GetHTTPClient returns an HTTP client configured with TLS settings based on AllowSelfSignedCerts.
// A zero timeout means no client-side timeout.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
