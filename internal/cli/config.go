package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeySRID        = "srid"
	cfgKeyIdentifier  = "dataset_identifier"
	cfgKeyDataSetType = "dataset_type"
	cfgKeyTemplate    = "template"
	cfgKeyLogLevel    = "log_level"
	cfgKeyCoordSystem = "coord_system"
)

// configFile is the structure written to a fresh config.yaml.
type configFile struct {
	SRID        int    `yaml:"srid"`
	DataSetType string `yaml:"dataset_type"`
	LogLevel    string `yaml:"log_level"`
	Template    string `yaml:"template,omitempty"`
	CoordSystem string `yaml:"coord_system,omitempty"`
}

var defaultConfig = configFile{
	SRID:        4326,
	DataSetType: "SNAPSHOT",
	LogLevel:    "warn",
}

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run. A missing file is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeySRID, defaultConfig.SRID)
	v.SetDefault(cfgKeyDataSetType, defaultConfig.DataSetType)
	v.SetDefault(cfgKeyLogLevel, defaultConfig.LogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("TNF")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An
// existing file is left alone.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# tnfpkg configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
