package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_VerbosityLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		expected  zerolog.Level
	}{
		{"default is warn", 0, zerolog.WarnLevel},
		{"v is info", 1, zerolog.InfoLevel},
		{"vv is debug", 2, zerolog.DebugLevel},
		{"vvv is trace", 3, zerolog.TraceLevel},
		{"anything higher is trace", 7, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupLogger(tt.verbosity)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestGetLogger_SetsComponentField(t *testing.T) {
	logger := GetLogger("sync")
	// The component field is baked into the logger context; a disabled
	// logger would be the zero value.
	assert.NotEqual(t, zerolog.Logger{}, logger)
}
