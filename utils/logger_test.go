package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, "", false, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger, err = NewLogger(&buf, "", true, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger, err = NewLogger(&buf, "warn", true, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	_, err = NewLogger(&buf, "loud", false, "")
	assert.Error(t, err)

	_, err = NewLogger(&buf, "", false, "Mars/Olympus")
	assert.Error(t, err)
}

func TestNewLogger_FixedTimezone(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", false, "UTC")
	require.NoError(t, err)

	at := time.Date(2024, 3, 5, 21, 7, 9, 123_000_000, time.FixedZone("X", 3*3600))
	logger.WithTime(at).Info("Starting the browser...")

	out := buf.String()
	assert.Contains(t, out, `time="03/05/2024, 06:07:09.123 PM"`)
	assert.Contains(t, out, `msg="Starting the browser..."`)
}
