package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/olympia/core"
)

// NewConfig returns a test configuration pointing the API client at baseURL.
func NewConfig(baseURL string) *core.Config {
	return &core.Config{
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		AppName:  "Olympia",
		Client: core.ClientConfig{
			BaseURL:        baseURL,
			Timeout:        5 * time.Second,
			Credentials:    core.CredentialsInclude,
			DefaultHeaders: map[string]string{"Accept": "application/json"},
			RefreshWindow:  time.Minute,
		},
		Gateway: core.GatewayConfig{
			Host:            ":0",
			AllowOrigins:    []string{"http://localhost:3000"},
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
			MaxBodyBytes:    1 << 20,
		},
	}
}

// Entry is a message recorded by Logger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger that records entries instead of reporting them.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}

// MakeToken signs an HS256 token carrying claims, the way the backend issues them.
func MakeToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	return token
}
