// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultLevel keeps diagnostics out of normal command output.
const DefaultLevel = log.WarnLevel

// Setup points the standard logger at out and sets its level. An empty
// level selects DefaultLevel.
func Setup(level string, out io.Writer) error {
	lvl := DefaultLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	})
	return nil
}
