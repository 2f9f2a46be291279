/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package log

import (
	"io"
	golog "log"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DebugLogger is a global logger configured to output messages at DebugLevel
	// and above to os.Stdout.
	DebugLogger = NewZap(DebugLevel, os.Stdout)

	// DiscardLogger is a no-op logger that discards all log messages.
	DiscardLogger Logger = discardLogger{}

	// DefaultLogger is a global logger configured to output messages at InfoLevel
	// and above to os.Stdout.
	DefaultLogger = NewZap(InfoLevel, os.Stdout)
)

// Zap implements the Logger interface with zap as the underlying logging
// library. File outputs are buffered for levels below error to reduce
// syscalls. Stdout and stderr remain unbuffered for immediate visibility.
// Call Flush during graceful shutdown to drain buffered file output.
type Zap struct {
	logger              *zap.Logger
	sugar               *zap.SugaredLogger
	outputs             []io.Writer
	bufferedWriteSyncer *zapcore.BufferedWriteSyncer
}

// enforce compilation and linter error
var _ Logger = (*Zap)(nil)

// NewZap creates an instance of Zap
func NewZap(level Level, writers ...io.Writer) *Zap {
	config := newZapConfig()
	logLevel := toZapLevel(level)
	immediateSyncers, bufferedSyncers := splitWriteSyncers(writers...)
	core, bufferedWriteSyncer := newZapCore(config, logLevel, immediateSyncers, bufferedSyncers)

	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel))

	return &Zap{
		logger:              zapLogger,
		sugar:               zapLogger.Sugar(),
		outputs:             writers,
		bufferedWriteSyncer: bufferedWriteSyncer,
	}
}

// Debug starts a message with debug level
func (z *Zap) Debug(v ...any) {
	z.sugar.Debug(v...)
}

// Debugf starts a message with debug level
func (z *Zap) Debugf(format string, v ...any) {
	z.sugar.Debugf(format, v...)
}

// Info starts a message with info level
func (z *Zap) Info(v ...any) {
	z.sugar.Info(v...)
}

// Infof starts a message with info level
func (z *Zap) Infof(format string, v ...any) {
	z.sugar.Infof(format, v...)
}

// Warn starts a new message with warn level
func (z *Zap) Warn(v ...any) {
	z.sugar.Warn(v...)
}

// Warnf starts a new message with warn level
func (z *Zap) Warnf(format string, v ...any) {
	z.sugar.Warnf(format, v...)
}

// Error starts a new message with error level
func (z *Zap) Error(v ...any) {
	z.sugar.Error(v...)
}

// Errorf starts a new message with error level
func (z *Zap) Errorf(format string, v ...any) {
	z.sugar.Errorf(format, v...)
}

// Fatal starts a new message with fatal level. The os.Exit(1) function
// is called which terminates the program immediately.
func (z *Zap) Fatal(v ...any) {
	z.sugar.Fatal(v...)
}

// Fatalf starts a new message with fatal level. The os.Exit(1) function
// is called which terminates the program immediately.
func (z *Zap) Fatalf(format string, v ...any) {
	z.sugar.Fatalf(format, v...)
}

// Panic starts a new message with panic level. The panic() function
// is called which stops the ordinary flow of a goroutine.
func (z *Zap) Panic(v ...any) {
	z.sugar.Panic(v...)
}

// Panicf starts a new message with panic level. The panic() function
// is called which stops the ordinary flow of a goroutine.
func (z *Zap) Panicf(format string, v ...any) {
	z.sugar.Panicf(format, v...)
}

// With returns a Logger that includes the given key-value pairs in all
// subsequent log entries. Odd trailing values are keyed as "_". Non-string
// keys are skipped.
func (z *Zap) With(keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return z
	}

	fields := make([]zap.Field, 0, (len(keyValues)+1)/2)
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 >= len(keyValues) {
			fields = append(fields, zap.Any("_", keyValues[i]))
			break
		}
		k, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(k, keyValues[i+1]))
	}
	if len(fields) == 0 {
		return z
	}

	newLogger := z.logger.With(fields...)
	return &Zap{
		logger:              newLogger,
		sugar:               newLogger.Sugar(),
		outputs:             z.outputs,
		bufferedWriteSyncer: z.bufferedWriteSyncer,
	}
}

// LogLevel returns the log level that is used
func (z *Zap) LogLevel() Level {
	switch z.logger.Level() {
	case zapcore.FatalLevel:
		return FatalLevel
	case zapcore.PanicLevel:
		return PanicLevel
	case zapcore.ErrorLevel:
		return ErrorLevel
	case zapcore.InfoLevel:
		return InfoLevel
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.WarnLevel:
		return WarningLevel
	default:
		return InvalidLevel
	}
}

// LogOutput returns the log output that is set
func (z *Zap) LogOutput() []io.Writer {
	return z.outputs
}

// StdLogger returns the standard logger associated to the logger
func (z *Zap) StdLogger() *golog.Logger {
	stdlogger, _ := zap.NewStdLogAt(z.logger, z.logger.Level())
	return stdlogger
}

// Flush flushes buffered log entries. Call this during a graceful shutdown
// when no more log writes are expected.
func (z *Zap) Flush() error {
	if z.bufferedWriteSyncer != nil {
		return z.bufferedWriteSyncer.Stop()
	}
	return syncFileOutputs(z.outputs)
}

func syncFileOutputs(outputs []io.Writer) error {
	var err error
	for _, output := range outputs {
		file, ok := output.(*os.File)
		if !ok || isStdStream(file) {
			continue
		}
		if syncErr := file.Sync(); syncErr != nil {
			err = multierr.Combine(err, syncErr)
		}
	}
	return err
}

func newZapConfig() zap.Config {
	return zap.Config{
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:       "ts",
			LevelKey:      "level",
			NameKey:       "logger",
			CallerKey:     "caller",
			MessageKey:    "msg",
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(t.Format("2006-01-02T15:04:05.000000Z0700"))
			},
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func splitWriteSyncers(writers ...io.Writer) ([]zapcore.WriteSyncer, []zapcore.WriteSyncer) {
	immediate := make([]zapcore.WriteSyncer, 0, len(writers))
	buffered := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		if file, ok := writer.(*os.File); ok && !isStdStream(file) {
			buffered = append(buffered, zapcore.AddSync(writer))
			continue
		}
		immediate = append(immediate, zapcore.AddSync(writer))
	}
	return immediate, buffered
}

func combineWriteSyncers(syncers []zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(syncers) == 0 {
		return nil
	}
	return zap.CombineWriteSyncers(syncers...)
}

func newZapCore(cfg zap.Config, logLevel zapcore.Level, immediateSyncers, bufferedSyncers []zapcore.WriteSyncer) (zapcore.Core, *zapcore.BufferedWriteSyncer) {
	encoder := zapcore.NewJSONEncoder(cfg.EncoderConfig)
	immediateWriteSyncer := combineWriteSyncers(immediateSyncers)
	fileWriteSyncer := combineWriteSyncers(bufferedSyncers)

	if fileWriteSyncer == nil {
		if immediateWriteSyncer == nil {
			immediateWriteSyncer = zapcore.AddSync(io.Discard)
		}
		return zapcore.NewCore(encoder, immediateWriteSyncer, logLevel), nil
	}

	// Buffer lower-severity file logs to reduce syscalls; keep errors unbuffered.
	bufferedWriteSyncer := &zapcore.BufferedWriteSyncer{
		WS:            fileWriteSyncer,
		Size:          256 * 1024,
		FlushInterval: 30 * time.Second,
	}

	lowPriority := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= logLevel && level < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= logLevel && level >= zapcore.ErrorLevel
	})

	cores := make([]zapcore.Core, 0, 3)
	if immediateWriteSyncer != nil {
		cores = append(cores, zapcore.NewCore(encoder, immediateWriteSyncer, logLevel))
	}
	cores = append(cores,
		zapcore.NewCore(encoder, bufferedWriteSyncer, lowPriority),
		zapcore.NewCore(encoder, fileWriteSyncer, highPriority))

	return zapcore.NewTee(cores...), bufferedWriteSyncer
}

func isStdStream(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return fd == os.Stdout.Fd() || fd == os.Stderr.Fd()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case InfoLevel:
		return zapcore.InfoLevel
	case DebugLevel:
		return zapcore.DebugLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.DebugLevel
	}
}
