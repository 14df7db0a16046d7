package interfaces

import "context"

// LogLevel определяет уровни логирования
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// LogField представляет дополнительное поле в логе
type LogField struct {
	Key   string
	Value interface{}
}

// LoggerPort определяет интерфейс для системы логирования консоли.
// Аргументы методов - значения LogField либо пары ключ/значение.
type LoggerPort interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// Fatal логирует сообщение и завершает процесс
	Fatal(msg string, args ...interface{})

	// Методы с контекстом дополняют запись полями из контекста (request_id и т.д.)
	DebugWithContext(ctx context.Context, msg string, args ...interface{})
	InfoWithContext(ctx context.Context, msg string, args ...interface{})
	WarnWithContext(ctx context.Context, msg string, args ...interface{})
	ErrorWithContext(ctx context.Context, msg string, args ...interface{})

	// WithFields возвращает новый логгер с добавленными полями
	WithFields(fields ...LogField) LoggerPort

	// WithField возвращает новый логгер с добавленным полем
	WithField(key string, value interface{}) LoggerPort

	// WithAccount возвращает логгер, помеченный типом аккаунта eMAG (main/fbe)
	WithAccount(accountType string) LoggerPort

	SetLevel(level LogLevel)
	GetLevel() LogLevel

	// Sync сбрасывает буферы логгера
	Sync() error
}
