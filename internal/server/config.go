package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete relay configuration
type Config struct {
	Server Settings `hcl:"server,block"`
}

// Settings contains server-level configuration
type Settings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`

	// History is how many room messages are replayed to a late joiner.
	History int `hcl:"history,optional"`
}

// DefaultConfig returns default relay configuration
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "cardroom-server.log",
			History:  100,
		},
	}
}

// LoadConfig loads relay configuration from an HCL file. A missing file
// means defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig().Server
	if config.Server.Address == "" {
		config.Server.Address = defaults.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.LogLevel
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = defaults.LogFile
	}
	if config.Server.History == 0 {
		config.Server.History = defaults.History
	}

	return &config, nil
}

// Validate validates the relay configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.History < 0 {
		return fmt.Errorf("history must not be negative: %d", c.Server.History)
	}
	return nil
}

// GetServerAddress returns the full listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
