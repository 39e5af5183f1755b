package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogTimezone is the zone progress timestamps are printed in.
	DefaultLogTimezone = "Europe/Istanbul"
	// LogTimestampFormat prints en-US style time with millisecond precision.
	LogTimestampFormat = "01/02/2006, 03:04:05.000 PM"
)

// zonedFormatter renders every entry's time in a fixed location.
type zonedFormatter struct {
	location *time.Location
	inner    logrus.Formatter
}

func (f *zonedFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	zoned := *entry
	zoned.Time = entry.Time.In(f.location)
	return f.inner.Format(&zoned)
}

// NewLogger builds the progress logger. level may be empty; verbose then
// selects debug over info.
func NewLogger(out io.Writer, level string, verbose bool, timezone string) (*logrus.Logger, error) {
	if timezone == "" {
		timezone = DefaultLogTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid log timezone %q: %w", timezone, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&zonedFormatter{
		location: location,
		inner: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: LogTimestampFormat,
		},
	})

	switch {
	case level != "":
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(parsed)
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger, nil
}
