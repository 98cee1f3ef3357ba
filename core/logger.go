package core

// Logger is any service that can log application events.
// args may hold errors, extra data (map[string]interface{}) and the logged in Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the account an event happened for.
type Person struct {
	ID       string
	Username string
	Email    string
}
