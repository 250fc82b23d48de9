package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"docroute/portal-backend/internal/offices"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig    `json:"server"`
	RemoteAPI  RemoteAPIConfig `json:"remote_api"`
	Clusters   ClustersConfig  `json:"clusters"`
	Polling    PollingConfig   `json:"polling"`
	Directory  DirectoryConfig `json:"directory"`
	Signals    SignalsConfig   `json:"signals"`
	Logging    LoggingConfig   `json:"logging"`
	InstanceID string          `json:"instance_id"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port" validate:"min=1,max=65535"`
	ReadTimeout    Duration `json:"read_timeout"`
	WriteTimeout   Duration `json:"write_timeout"`
	IdleTimeout    Duration `json:"idle_timeout"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// RemoteAPIConfig points at the document system the portal works against
type RemoteAPIConfig struct {
	BaseURL         string   `json:"base_url" validate:"required,url"`
	Authorization   string   `json:"authorization"`
	RequestIDHeader string   `json:"request_id_header"`
	Timeout         Duration `json:"timeout"`
}

// ClustersConfig is the office to supervising cluster table.
// Members is keyed by cluster code. An empty Members uses the built-in table.
type ClustersConfig struct {
	Members  map[string][]string `json:"members"`
	Fallback string              `json:"fallback_cluster" validate:"omitempty,oneof=PO VAd VF VR VA"`
	Strict   bool                `json:"strict"`
}

// PollingConfig controls the notification count poller
type PollingConfig struct {
	IdleInterval  Duration `json:"idle_interval"`
	BurstInterval Duration `json:"burst_interval"`
	BurstWindow   Duration `json:"burst_window"`
	Timeout       Duration `json:"timeout"`
	MaxConcurrent int      `json:"max_concurrent" validate:"min=1"`
}

// DirectoryConfig controls the office directory cache
type DirectoryConfig struct {
	TTL Duration `json:"ttl"`
}

// SignalsConfig enables cross-instance refresh signals over SNS.
// Signals stay local when TopicARN is empty.
type SignalsConfig struct {
	Region          string `json:"region"`
	TopicARN        string `json:"topic_arn" validate:"omitempty,startswith=arn:"`
	Endpoint        string `json:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level" validate:"oneof=debug info warn error"`
	Development bool   `json:"development"`
}

// Duration is a time.Duration read from "30s" style strings or integer seconds
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v) * time.Second)
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

var validate = validator.New()

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
		},
		RemoteAPI: RemoteAPIConfig{
			BaseURL:         "http://localhost:8000",
			RequestIDHeader: "X-Request-ID",
			Timeout:         Duration(30 * time.Second),
		},
		Polling: PollingConfig{
			IdleInterval:  Duration(60 * time.Second),
			BurstInterval: Duration(5 * time.Second),
			BurstWindow:   Duration(2 * time.Minute),
			Timeout:       Duration(10 * time.Second),
			MaxConcurrent: 4,
		},
		Directory: DirectoryConfig{
			TTL: Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error. Values from .env files are applied to the
// environment before the overrides are read.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %w", err)
		}
		config.Server.Port = p
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}

	if baseURL := os.Getenv("REMOTE_API_BASE_URL"); baseURL != "" {
		config.RemoteAPI.BaseURL = baseURL
	}
	if auth := os.Getenv("REMOTE_API_AUTHORIZATION"); auth != "" {
		config.RemoteAPI.Authorization = auth
	}

	if fallback := os.Getenv("CLUSTER_FALLBACK"); fallback != "" {
		config.Clusters.Fallback = fallback
	}
	if strict := os.Getenv("CLUSTER_STRICT"); strict != "" {
		b, err := strconv.ParseBool(strict)
		if err != nil {
			return fmt.Errorf("invalid CLUSTER_STRICT: %w", err)
		}
		config.Clusters.Strict = b
	}

	durations := []struct {
		env    string
		target *Duration
	}{
		{"REMOTE_API_TIMEOUT", &config.RemoteAPI.Timeout},
		{"POLL_IDLE_INTERVAL", &config.Polling.IdleInterval},
		{"POLL_BURST_INTERVAL", &config.Polling.BurstInterval},
		{"POLL_BURST_WINDOW", &config.Polling.BurstWindow},
		{"DIRECTORY_TTL", &config.Directory.TTL},
	}
	for _, d := range durations {
		raw := os.Getenv(d.env)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.target = Duration(parsed)
	}

	if region := os.Getenv("SNS_REGION"); region != "" {
		config.Signals.Region = region
	}
	if topic := os.Getenv("SNS_TOPIC_ARN"); topic != "" {
		config.Signals.TopicARN = topic
	}
	if endpoint := os.Getenv("SNS_ENDPOINT"); endpoint != "" {
		config.Signals.Endpoint = endpoint
	}

	if id := os.Getenv("INSTANCE_ID"); id != "" {
		config.InstanceID = id
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Polling.BurstInterval.Std() <= 0 || c.Polling.IdleInterval.Std() < c.Polling.BurstInterval.Std() {
		return fmt.Errorf("invalid config: polling burst interval must be positive and not exceed the idle interval")
	}
	return nil
}

// ClusterMap builds the cluster table from the clusters section
func (c *ClustersConfig) ClusterMap() (*offices.ClusterMap, error) {
	members := c.Members
	if len(members) == 0 {
		members = offices.DefaultClusterMembers()
	}
	return offices.NewClusterMap(members, c.Fallback)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
