package logging

import (
	"github.com/charmbracelet/log"
)

// Setup applies the configured log level to the global logger. An unknown
// level keeps the default and warns rather than failing the run.
func Setup(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, keeping default", "level", level)
		return
	}
	log.SetLevel(parsed)
}
