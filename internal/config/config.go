package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/viper"

	"github.com/clanrich/signal/internal/domain"
)

type Config struct {
	Mode          string            `mapstructure:"mode"`
	Port          int               `mapstructure:"port"`
	ReadLimit     int64             `mapstructure:"read_limit"`
	PingPeriod    time.Duration     `mapstructure:"ping_period"`
	SweepInterval time.Duration     `mapstructure:"sweep_interval"`
	DefaultRoom   string            `mapstructure:"default_room"`
	Secret        string            `mapstructure:"secret"`
	Rooms         []domain.RoomInfo `mapstructure:"rooms"`
	StunURLs      []string          `mapstructure:"stun_urls"`
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("sweep_interval", "5m")
	v.SetDefault("default_room", "main")
	v.SetDefault("stun_urls", []string{"stun:stun.l.google.com:19302"})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// RoomInfo resolves display metadata for a room id. Rooms outside the
// configured set carry their id as the display name.
func (c *Config) RoomInfo(id domain.RoomID) domain.RoomInfo {
	for _, r := range c.Rooms {
		if r.ID == id {
			return r
		}
	}
	return domain.RoomInfo{ID: id, Name: string(id)}
}

// ICEServers builds the STUN/TURN bootstrap handed to joining clients.
func (c *Config) ICEServers() []webrtc.ICEServer {
	if len(c.StunURLs) == 0 {
		return nil
	}
	return []webrtc.ICEServer{{URLs: c.StunURLs}}
}
