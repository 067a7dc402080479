package core

// Logger logs messages and reports errors.
// Expected args: error, map[string]interface{} (extras), user.User (the current user).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
