// Package logging builds the zap logger shared by the app and adapts it to
// the Wails runtime logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	wlogger "github.com/wailsapp/wails/v2/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeFmt = "2006/01/02 15:04:05.000"

type Config struct {
	Level string
	App   string
	Dir   string
	File  bool
}

// New creates a console logger, teed into rotating <app>.log and
// <app>_error.log files under Dir when File is set.
func New(cfg Config) *zap.Logger {
	if cfg.App == "" {
		cfg.App = "roulette"
	}
	lv := zap.NewAtomicLevel()
	if err := lv.UnmarshalText([]byte(cfg.Level)); err != nil {
		_ = lv.UnmarshalText([]byte("info"))
		_, _ = fmt.Fprintf(os.Stderr, "logger: invalid log level %q, defaulting to INFO\n", cfg.Level)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg(false)), zapcore.Lock(os.Stdout), lv),
	}
	if cfg.File {
		name := filepath.Join(cfg.Dir, cfg.App)
		cores = append(cores,
			fileCore(name+".log", lv),
			fileCore(name+"_error.log", zap.ErrorLevel),
		)
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func fileCore(file string, lv zapcore.LevelEnabler) zapcore.Core {
	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg(true)), zapcore.AddSync(w), lv)
}

func encCfg(file bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + t.Format(timeFmt) + "]")
	}
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.ConsoleSeparator = " "
	if file {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

// Wails routes the desktop runtime's log lines into zap.
type Wails struct {
	log *zap.Logger
}

var _ wlogger.Logger = (*Wails)(nil)

func NewWails(l *zap.Logger) *Wails {
	return &Wails{log: l.Named("wails").WithOptions(zap.AddCallerSkip(1))}
}

func (w *Wails) Print(message string)   { w.log.Info(message) }
func (w *Wails) Trace(message string)   { w.log.Debug(message) }
func (w *Wails) Debug(message string)   { w.log.Debug(message) }
func (w *Wails) Info(message string)    { w.log.Info(message) }
func (w *Wails) Warning(message string) { w.log.Warn(message) }
func (w *Wails) Error(message string)   { w.log.Error(message) }

// Fatal logs at error level; Wails decides whether to exit.
func (w *Wails) Fatal(message string) { w.log.Error(message) }
