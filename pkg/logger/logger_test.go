package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(level zapcore.Level) (*Logger, *bytes.Buffer) {
	var logBuffer bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(&logBuffer)),
		level,
	)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, &logBuffer
}

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		logger := New(env)
		require.NotNil(t, logger)
		assert.NotNil(t, logger.Zap())
	}

	assert.True(t, New("development").Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("production").Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestLogger_LogLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     zapcore.Level
		logFunc   func(*Logger, ...interface{})
		message   string
		shouldLog bool
	}{
		{
			name:      "Debug level with debug message",
			level:     zapcore.DebugLevel,
			logFunc:   (*Logger).Debug,
			message:   "debug message",
			shouldLog: true,
		},
		{
			name:      "Info level with debug message",
			level:     zapcore.InfoLevel,
			logFunc:   (*Logger).Debug,
			message:   "debug message",
			shouldLog: false,
		},
		{
			name:      "Warn level with info message",
			level:     zapcore.WarnLevel,
			logFunc:   (*Logger).Info,
			message:   "info message",
			shouldLog: false,
		},
		{
			name:      "Error level with error message",
			level:     zapcore.ErrorLevel,
			logFunc:   (*Logger).Error,
			message:   "error message",
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, output := newBufferedLogger(tt.level)

			tt.logFunc(logger, tt.message)

			if tt.shouldLog {
				assert.Contains(t, output.String(), tt.message)
			} else {
				assert.NotContains(t, output.String(), tt.message)
			}
		})
	}
}

func TestLogger_WithRequestID(t *testing.T) {
	logger, output := newBufferedLogger(zapcore.InfoLevel)

	logger.WithRequestID("req-12345").Info("handled request")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &entry))
	assert.Equal(t, "handled request", entry["msg"])
	assert.Equal(t, "req-12345", entry["request_id"])
}

func TestLogger_ChainedContext(t *testing.T) {
	logger, output := newBufferedLogger(zapcore.InfoLevel)

	logger.WithRequestID("req-456").WithReminderID(42).Infow("Reminder cancelled", "status", "cancelled")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &entry))
	assert.Equal(t, "req-456", entry["request_id"])
	assert.Equal(t, float64(42), entry["reminder_id"])
	assert.Equal(t, "cancelled", entry["status"])
}

func TestLogger_ZapSharesCore(t *testing.T) {
	logger, output := newBufferedLogger(zapcore.InfoLevel)

	logger.Zap().Info("Reminder triggered", zap.Int64("reminder_id", 7))
	logger.Infof("Deleted %d old reminder(s)", 3)

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"reminder_id":7`)
	assert.Contains(t, lines[1], "Deleted 3 old reminder(s)")
}

func TestLogger_ThreadSafety(t *testing.T) {
	logger, output := newBufferedLogger(zapcore.InfoLevel)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(id int) {
			logger.WithReminderID(int64(id)).Info("concurrent fire")
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.NotEmpty(t, output.String())
}
