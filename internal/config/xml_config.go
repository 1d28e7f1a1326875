// Package config provides XML-based configuration for the desktop client and
// the development simulator.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the default configuration file name.
const FileName = "DataPlatformDesktop.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"DataPlatformDesktop"`

	// Service endpoints
	Services ServicesConfig `xml:"Services"`

	// Client behaviour
	Client ClientConfig `xml:"Client"`

	// Development simulator
	Simulator SimulatorConfig `xml:"Simulator"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServicesConfig holds the base URL of each data platform service. Empty
// entries fall back to Ingestion.
type ServicesConfig struct {
	Ingestion       string `xml:"Ingestion"`
	Query           string `xml:"Query"`
	Annotation      string `xml:"Annotation"`
	IngestionStream string `xml:"IngestionStream"`
}

// ClientConfig contains request settings
type ClientConfig struct {
	RequestTimeout  int `xml:"RequestTimeoutSeconds"`
	ShutdownTimeout int `xml:"ShutdownTimeoutSeconds"`
	DefaultWindow   int `xml:"DefaultQueryWindowMinutes"`
}

// SimulatorConfig contains settings for the local simulator
type SimulatorConfig struct {
	Port                 int    `xml:"Port"`
	BindAddress          string `xml:"BindAddress"`
	EventIntervalMs      int    `xml:"EventIntervalMilliseconds"`
	BodyLimit            string `xml:"BodyLimit"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel    string `xml:"LogLevel"`
	LogFile     string `xml:"LogFile"`
	PresetsFile string `xml:"PresetsFile"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Services: ServicesConfig{
			Ingestion:       "http://localhost:50051",
			Query:           "http://localhost:50051",
			Annotation:      "http://localhost:50051",
			IngestionStream: "http://localhost:50051",
		},
		Client: ClientConfig{
			RequestTimeout:  30,
			ShutdownTimeout: 5,
			DefaultWindow:   60,
		},
		Simulator: SimulatorConfig{
			Port:                 50051,
			BindAddress:          "127.0.0.1",
			EventIntervalMs:      0,
			BodyLimit:            "64M",
			EnableRequestLogging: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:    "info",
			LogFile:     "./dpdesktop.log",
			PresetsFile: "./presets.yaml",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Data Platform Desktop Configuration -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// DP_ENDPOINT points every service at one host
	if endpoint := os.Getenv("DP_ENDPOINT"); endpoint != "" {
		c.SetEndpoint(endpoint)
	}

	if level := os.Getenv("DP_LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if port := os.Getenv("DP_SIMULATOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Simulator.Port = p
		}
	}
}

// SetEndpoint points every service at base.
func (c *AppConfig) SetEndpoint(base string) {
	base = strings.TrimRight(base, "/")
	c.Services = ServicesConfig{
		Ingestion:       base,
		Query:           base,
		Annotation:      base,
		IngestionStream: base,
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Advanced.LogFile != "" && !filepath.IsAbs(c.Advanced.LogFile) {
		c.Advanced.LogFile = filepath.Join(configDir, c.Advanced.LogFile)
	}
	if c.Advanced.PresetsFile != "" && !filepath.IsAbs(c.Advanced.PresetsFile) {
		c.Advanced.PresetsFile = filepath.Join(configDir, c.Advanced.PresetsFile)
	}
}

// RequestTimeout returns the per-request RPC timeout.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeout) * time.Second
}

// ShutdownTimeout bounds how long closing a subscription may take.
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.Client.ShutdownTimeout) * time.Second
}

// DefaultWindow is the initial length of the query time window.
func (c *AppConfig) DefaultWindow() time.Duration {
	if c.Client.DefaultWindow <= 0 {
		return time.Hour
	}
	return time.Duration(c.Client.DefaultWindow) * time.Minute
}

// EventInterval is the simulator's ticker period; zero disables it.
func (c *AppConfig) EventInterval() time.Duration {
	return time.Duration(c.Simulator.EventIntervalMs) * time.Millisecond
}

// GetSimulatorAddr returns the simulator bind address
func (c *AppConfig) GetSimulatorAddr() string {
	return fmt.Sprintf("%s:%d", c.Simulator.BindAddress, c.Simulator.Port)
}
