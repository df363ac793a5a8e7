package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with run-context support.
type Logger struct {
	logger *zap.Logger
}

// LogLevel defines the logging level.
type LogLevel zapcore.Level

const (
	DEBUG LogLevel = LogLevel(zapcore.DebugLevel)
	INFO  LogLevel = LogLevel(zapcore.InfoLevel)
	WARN  LogLevel = LogLevel(zapcore.WarnLevel)
	ERROR LogLevel = LogLevel(zapcore.ErrorLevel)
	FATAL LogLevel = LogLevel(zapcore.FatalLevel)
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	loggerKey contextKey = "logger"
)

func newZapConfig(level LogLevel) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.Level(level))
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}

// NewLogger creates a new Logger instance at the given level.
func NewLogger(level LogLevel) *Logger {
	logger, _ := newZapConfig(level).Build()
	return &Logger{logger: logger}
}

// WithRunID tags the context with a simulation run identifier, minting
// one if the caller doesn't supply one.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		runID = uuid.New().String()
	}
	return context.WithValue(ctx, runIDKey, runID)
}

func getRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return "no-run-id"
}

// GetLogger retrieves or creates a logger carrying this context's run ID.
func GetLogger(ctx context.Context) (*Logger, context.Context) {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger, ctx
	}

	zapLogger, _ := newZapConfig(INFO).Build()
	logger := &Logger{
		logger: zapLogger.With(zap.String("run_id", getRunID(ctx))),
	}
	ctx = context.WithValue(ctx, loggerKey, logger)
	return logger, ctx
}

func (l *Logger) logMessage(level LogLevel, msg string, fields ...zap.Field) {
	logger := l.logger
	switch level {
	case DEBUG:
		logger.Debug(msg, fields...)
	case INFO:
		logger.Info(msg, fields...)
	case WARN:
		logger.Warn(msg, fields...)
	case ERROR:
		logger.Error(msg, fields...)
	case FATAL:
		logger.Fatal(msg, fields...)
	}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.logMessage(DEBUG, msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.logMessage(INFO, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.logMessage(WARN, msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.logMessage(ERROR, msg, fields...) }

// Fatal logs at fatal level and terminates the process, the diagnostic-and-abort
// path for expected-impossibility invariant breaches.
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.logMessage(FATAL, msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}
