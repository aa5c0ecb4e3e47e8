package common

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the verification run.
type Config struct {
	LogLevel       string `yaml:"logLevel"`
	ReferenceHost  string `yaml:"referenceHost"`
	TestingHost    string `yaml:"testingHost"`
	RpcEndpoint    string `yaml:"rpcEndpoint"`
	KeysFile       string `yaml:"keysFile"`
	TestRetries    int    `yaml:"testRetries"`
	LogDifferences bool   `yaml:"logDifferences"`

	// Interval inserted after every request and between retries, to stay
	// below the rate limits of both hosts.
	RequestInterval string `yaml:"requestInterval"`

	// Filters are regular expressions deleted from the raw diff text, in
	// order, to suppress differences that are already known and accepted.
	DifferenceFilters []string `yaml:"differenceFilters"`

	// Load test mode.
	LoadUsers    int    `yaml:"loadUsers"`
	LoadDuration string `yaml:"loadDuration"`
}

// LoadConfig loads the configuration from the specified file.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TestRetries == 0 {
		c.TestRetries = 20
	}
	if c.RequestInterval == "" {
		c.RequestInterval = "1500ms"
	}
	if c.LoadUsers == 0 {
		c.LoadUsers = 10
	}
	if c.LoadDuration == "" {
		c.LoadDuration = "60s"
	}
}

func (c *Config) Validate() error {
	if c.ReferenceHost == "" {
		return NewErrInvalidConfig("referenceHost", "reference host is required")
	}
	if c.TestingHost == "" {
		return NewErrInvalidConfig("testingHost", "testing host is required")
	}
	if c.TestRetries < 1 {
		return NewErrInvalidConfig("testRetries", fmt.Sprintf("must be at least 1, got %d", c.TestRetries))
	}
	if _, err := time.ParseDuration(c.RequestInterval); err != nil {
		return NewErrInvalidConfig("requestInterval", err.Error())
	}
	if _, err := time.ParseDuration(c.LoadDuration); err != nil {
		return NewErrInvalidConfig("loadDuration", err.Error())
	}
	for _, expr := range c.DifferenceFilters {
		if _, err := regexp.Compile(expr); err != nil {
			return NewErrInvalidFilterExpression(expr, err)
		}
	}
	return nil
}

func (c *Config) RequestIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestInterval)
	return d
}

func (c *Config) LoadDurationDuration() time.Duration {
	d, _ := time.ParseDuration(c.LoadDuration)
	return d
}
