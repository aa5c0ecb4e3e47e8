package util

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// IsTest reports whether the binary is running under "go test".
func IsTest() bool {
	return flag.Lookup("test.v") != nil
}

// ConfigureTestLogger silences the global logger for test runs. Setting
// LOG_LEVEL turns output back on at that level, on a console writer.
func ConfigureTestLogger() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		return
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
}
