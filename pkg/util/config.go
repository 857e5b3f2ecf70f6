package util

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig. reads config.yaml from configPath (default ./data/). A missing file is not an error,
// every key has a default.
func ReadConfig(configPath string) error {
	if configPath == "" {
		configPath = "./data/"
	}
	viper.SetConfigName("config")
	viper.AddConfigPath(configPath)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
