package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a structured logger writing to w at the given level.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "moneyflow",
	}), nil
}

// Setup installs a stderr logger as the package-level default used by every
// log call in the module.
func Setup(level string) error {
	logger, err := New(os.Stderr, level)
	if err != nil {
		return err
	}
	log.SetDefault(logger)
	return nil
}
