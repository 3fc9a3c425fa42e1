package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources:
// 1. .env file (for environment variables)
// 2. config.yaml (base configuration)
// 3. config/vanish_config.json (merged into the main config)
// Environment variables override settings of the same name from the files.
func LoadConfig() {
	// Load environment variables from .env; a missing file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No base config file (config.yaml) found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error reading base config file: %w", err))
		}
	}

	// Merge the vanish tuning file if present.
	viper.SetConfigName("vanish_config")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No vanish config file (config/vanish_config.json) found, skipping merge.")
		} else {
			panic(fmt.Errorf("fatal error merging vanish config file: %w", err))
		}
	}

	setDefaults()
}

// setDefaults applies the pacing and storage defaults the Discord endpoints
// are known to tolerate.
func setDefaults() {
	viper.SetDefault("vanish.dbPath", "data/vanish.db")
	viper.SetDefault("vanish.deleteDelay", "1s")
	viper.SetDefault("vanish.searchDelay", "400ms")
	viper.SetDefault("vanish.indexRefreshDelay", "5s")
	viper.SetDefault("vanish.chunkSize", 2000)
	viper.SetDefault("vanish.batchSize", 25)
	viper.SetDefault("vanish.saveInterval", "30s")
	viper.SetDefault("vanish.statusInterval", "5s")
}
