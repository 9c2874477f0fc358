// Package config loads the application configuration from YAML with
// environment overrides for credentials.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`
	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`
	Upload struct {
		MaxMb int `yaml:"max_mb"`
	} `yaml:"upload"`
	Download struct {
		SignedURLTTLSeconds int    `yaml:"signed_url_ttl_seconds"`
		Dir                 string `yaml:"dir"`
	} `yaml:"download"`
}

// SignedURLTTL returns the configured signing window as a duration.
func (c *Config) SignedURLTTL() time.Duration {
	return time.Duration(c.Download.SignedURLTTLSeconds) * time.Second
}

func Load() *Config {
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	return LoadFile(configPath)
}

func LoadFile(configPath string) *Config {
	config := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("Failed to read config file, using defaults: %v", err)
		applyEnv(config)
		return config
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		log.Printf("Failed to parse config file, using defaults: %v", err)
		config = defaultConfig()
	}

	applyEnv(config)

	// Log only a hash prefix so credentials never reach the logs.
	if config.Storage.AccessKey != "" {
		hasher := sha256.New()
		hasher.Write([]byte(config.Storage.AccessKey))
		log.Printf("Storage access key configured (hash prefix: %s...)",
			hex.EncodeToString(hasher.Sum(nil)[:8]))
	}

	return config
}

func applyEnv(config *Config) {
	if v := os.Getenv("JV_ACCESS_KEY"); v != "" {
		config.Storage.AccessKey = v
	}
	if v := os.Getenv("JV_SECRET_KEY"); v != "" {
		config.Storage.SecretKey = v
	}
	if v := os.Getenv("JV_STORAGE_ENDPOINT"); v != "" {
		config.Storage.Endpoint = v
	}
}

func defaultConfig() *Config {
	config := &Config{}
	config.Storage.Endpoint = "http://localhost:9000"
	config.Storage.Region = "us-east-1"
	config.Storage.Bucket = "journals"
	config.Storage.Database = "./journal.db"
	config.API.Port = "8080"
	config.Upload.MaxMb = 50
	config.Download.SignedURLTTLSeconds = 60
	config.Download.Dir = "./downloads"
	return config
}
