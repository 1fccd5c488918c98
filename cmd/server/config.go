package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT,required=true"`

	LogLevel string `env:"LOG_LEVEL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	// ConnectionBufferSize bounds each connection's outbound queue; a peer
	// that lets it fill up is dropped.
	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,required=true"`
	AllowedOrigin        string `env:"ALLOWED_ORIGIN,required=true"`

	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	CharReplacement string        `env:"CHARACTER_REPLACEMENT,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`
	GCInterval      time.Duration `env:"GC_INTERVAL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}
