package logger

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger представляет интерфейс для логирования
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field представляет поле лога
type Field struct {
	zap.Field
}

// LoggerImpl реализация логгера на основе zap
type LoggerImpl struct {
	zapLogger *zap.Logger
}

// NewLogger создает новый логгер с заданными параметрами
//
// Параметры:
// - environment: окружение (dev, staging, prod)
// - level: уровень логирования
// - serviceName: имя сервиса для контекста
func NewLogger(environment, level, serviceName string) (Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	// В dev окружении пишем человекочитаемый вывод, иначе JSON
	var encoder zapcore.Encoder
	if environment == "dev" {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "time"
		encoderConfig.MessageKey = "msg"
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(zapLevel),
	)

	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	zapLogger = zapLogger.With(
		zap.String("service", serviceName),
		zap.String("environment", environment),
	)

	return &LoggerImpl{zapLogger: zapLogger}, nil
}

// NewNop возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNop() Logger {
	return &LoggerImpl{zapLogger: zap.NewNop()}
}

// Debug записывает отладочное сообщение
func (l *LoggerImpl) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, toZap(fields)...)
}

// Info записывает информационное сообщение
func (l *LoggerImpl) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZap(fields)...)
}

// Warn записывает предупреждение
func (l *LoggerImpl) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZap(fields)...)
}

// Error записывает ошибку
func (l *LoggerImpl) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZap(fields)...)
}

// With добавляет поля к логгеру и возвращает новый логгер
func (l *LoggerImpl) With(fields ...Field) Logger {
	return &LoggerImpl{zapLogger: l.zapLogger.With(toZap(fields)...)}
}

// Sync сбрасывает буферы логгера
func (l *LoggerImpl) Sync() error {
	return l.zapLogger.Sync()
}

func toZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = field.Field
	}
	return zapFields
}

type traceIDKey struct{}

// WithTraceID кладет trace_id в контекст
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// CtxField возвращает поле с trace_id из контекста
func CtxField(ctx context.Context) Field {
	if ctx != nil {
		if traceID, ok := ctx.Value(traceIDKey{}).(string); ok && traceID != "" {
			return String("trace_id", traceID)
		}
	}
	return String("trace_id", "unknown")
}

// String создает поле со строковым значением
func String(key, val string) Field {
	return Field{zap.String(key, val)}
}

// Int создает поле с целочисленным значением
func Int(key string, val int) Field {
	return Field{zap.Int(key, val)}
}

// Int64 создает поле с целочисленным значением типа int64
func Int64(key string, val int64) Field {
	return Field{zap.Int64(key, val)}
}

// Bool создает поле с булевым значением
func Bool(key string, val bool) Field {
	return Field{zap.Bool(key, val)}
}

// Duration создает поле с длительностью
func Duration(key string, val time.Duration) Field {
	return Field{zap.Duration(key, val)}
}

// Error создает поле с ошибкой
func Error(err error) Field {
	if err == nil {
		return Field{zap.String("error", "nil")}
	}
	return Field{zap.String("error", err.Error())}
}

// Any создает поле с любым значением
func Any(key string, val interface{}) Field {
	return Field{zap.Any(key, val)}
}
