package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	WithField(key string, value any) Logger
}

type ctxFieldsKey struct{}

// ContextWithField returns a context whose loggers carry key=value.
func ContextWithField(ctx context.Context, key string, value any) context.Context {
	fields := logrus.Fields{}
	if existing, ok := ctx.Value(ctxFieldsKey{}).(logrus.Fields); ok {
		for k, v := range existing {
			fields[k] = v
		}
	}
	fields[key] = value
	return context.WithValue(ctx, ctxFieldsKey{}, fields)
}

var (
	baseMu     sync.RWMutex
	baseLogger = logrus.New()
)

// Configure sets the level ("debug", "info", ...) and format ("text" or "json")
// of the default logrus logger. Unknown levels keep the current one.
func Configure(level string, format string, out io.Writer) {
	baseMu.Lock()
	defer baseMu.Unlock()

	if parsed, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		baseLogger.SetLevel(parsed)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		baseLogger.SetFormatter(&logrus.JSONFormatter{})
	default:
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if out != nil {
		baseLogger.SetOutput(out)
	} else {
		baseLogger.SetOutput(os.Stderr)
	}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debug(args ...any) {
	l.entry.Debug(args...)
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Info(args ...any) {
	l.entry.Info(args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Error(args ...any) {
	l.entry.Error(args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Warn(args ...any) {
	l.entry.Warn(args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Fatal(args ...any) {
	l.entry.Fatal(args...)
}

func (l *logrusLogger) Fatalf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func NewLogger(ctx context.Context) Logger {
	factory := GetLoggerFactory()
	if factory != nil {
		return factory.CreateLogger(ctx)
	}

	return newLogrusLogger(ctx)
}

func newLogrusLogger(ctx context.Context) Logger {
	baseMu.RLock()
	logger := baseLogger
	baseMu.RUnlock()

	entry := logger.WithContext(ctx)
	if fields, ok := ctx.Value(ctxFieldsKey{}).(logrus.Fields); ok {
		entry = entry.WithFields(fields)
	}
	return &logrusLogger{entry: entry}
}
