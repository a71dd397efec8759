package service

// Logger is the narrow logging interface services depend on, keeping them
// mock-friendly in tests. pkg/utils provides a zap-backed implementation.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
