package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options control how the application logger is built.
type Options struct {
	// JSON switches from console to json encoding.
	JSON bool
	// Debug forces the debug level regardless of Level.
	Debug bool
	// Level is a zap level name. Empty means info.
	Level string
	// App is attached to every entry as the "app" field when set.
	App string
}

func (o Options) level() (zapcore.Level, error) {
	if o.Debug {
		return zapcore.DebugLevel, nil
	}
	if strings.TrimSpace(o.Level) == "" {
		return zapcore.InfoLevel, nil
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(o.Level))
	if err != nil {
		return 0, fmt.Errorf("parsing log level: %w", err)
	}
	return level, nil
}

func (o Options) config() (zap.Config, error) {
	level, err := o.level()
	if err != nil {
		return zap.Config{}, err
	}

	encoding := "console"
	if o.JSON {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding: encoding,
		Level:    zap.NewAtomicLevelAt(level),
		// Table and json output own stdout.
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !o.Debug,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			StacktraceKey:  "stacktrace",
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	if o.App != "" {
		cfg.InitialFields = map[string]any{"app": o.App}
	}

	return cfg, nil
}

// New builds the application logger.
func New(opts Options) (*zap.Logger, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}
