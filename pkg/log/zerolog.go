package log

import (
	"context"
	"io"

	"github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger creates a JSON zerolog logger writing to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	z := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{z: z}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.z.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.z.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.z.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields ...any) {
	ev := l.z.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (l *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{z: l.z.With().Fields(fields).Logger()}
}

func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.z.GetLevel()
}

// ZerologProvider is a LoggerProvider backed by a single zerolog logger.
type ZerologProvider struct {
	logger *ZerologLogger
}

// NewZerologProvider creates a provider writing to w at the given level.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{logger: NewZerologLogger(w, level)}
}

func (p *ZerologProvider) GetLogger() Logger {
	return p.logger
}

func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

func (p *ZerologProvider) SetLevel(level Level) {
	p.logger.z = p.logger.z.Level(toZerologLevel(level))
}

// InstallZerologWarnings routes errors.Warn through the given zerolog logger.
// Warnings implementing zerolog.LogObjectMarshaler are embedded as structured fields.
func InstallZerologWarnings(z zerolog.Logger) {
	errors.SetZerologWarnFunc(func(w error) {
		ev := z.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
}
