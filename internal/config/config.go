package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Room     RoomConfig     `mapstructure:"room"`
	Flip7    Flip7Config    `mapstructure:"flip7"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RoomConfig struct {
	LogCap        int           `mapstructure:"log_cap"`
	EvictAfter    time.Duration `mapstructure:"evict_after"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

type Flip7Config struct {
	WinThreshold int `mapstructure:"win_threshold"`
	SevenBonus   int `mapstructure:"seven_bonus"`
}

// Load reads the yaml config at the given path. A missing file is not an
// error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "./cardtable.db")
	v.SetDefault("room.log_cap", 50)
	v.SetDefault("room.evict_after", 30*time.Minute)
	v.SetDefault("room.evict_interval", time.Minute)
	v.SetDefault("flip7.win_threshold", 200)
	v.SetDefault("flip7.seven_bonus", 15)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem. Tests use it.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "./cardtable.db"},
		Room:     RoomConfig{LogCap: 50, EvictAfter: 30 * time.Minute, EvictInterval: time.Minute},
		Flip7:    Flip7Config{WinThreshold: 200, SevenBonus: 15},
	}
}
