package internal

import (
	"fmt"
	"time"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	EnableModeration  bool          `env:"ENABLE_MODERATION,default=true"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=4000"`
	SearchLimit       int           `env:"SEARCH_LIMIT,default=10"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	ExportDir         string        `env:"EXPORT_DIR,default=exports"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
