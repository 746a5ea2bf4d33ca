package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// PublicURL is the origin clients reach this server on. The message
	// formatter only embeds images whose URL starts with it.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`

	MaxNewlinesPerMessage       int `mapstructure:"max_newlines_per_message" yaml:"max_newlines_per_message"`
	MaxReplacedImagesPerMessage int `mapstructure:"max_replaced_images_per_message" yaml:"max_replaced_images_per_message"`
	HistoryPageSize             int `mapstructure:"history_page_size" yaml:"history_page_size"`
	MessagesPerMinute           int `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`

	// Stickers maps a literal chat code (e.g. ":ok:") to an image URL.
	Stickers map[string]string `mapstructure:"stickers" yaml:"stickers"`

	// Rooms are created at startup. The first one is the default room new
	// sessions land in.
	Rooms []string `mapstructure:"rooms" yaml:"rooms"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                        ":8080",
		ReadHeaderTimeout:           5 * time.Second,
		ShutdownTimeout:             5 * time.Second,
		DatabasePath:                "roomchat.db",
		LogLevel:                    "info",
		JWTSecret:                   "change-me",
		JWTIssuer:                   "roomchat",
		JWTAudience:                 "roomchat",
		PublicURL:                   "http://localhost:8080",
		MaxNewlinesPerMessage:       20,
		MaxReplacedImagesPerMessage: 2,
		HistoryPageSize:             50,
		MessagesPerMinute:           60,
		Stickers:                    map[string]string{},
		Rooms:                       []string{"general"},
	}
}
