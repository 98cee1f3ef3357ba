package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/olympia/services/api"
	"github.com/trezcool/olympia/tests"
)

var backendNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T, stdin string) (*commandLine, *bytes.Buffer) {
	token := testutil.MakeToken(t, &api.Claims{
		StandardClaims: jwt.StandardClaims{Subject: "42", ExpiresAt: backendNow.Add(time.Hour).Unix()},
		Username:       "ada",
		Email:          "ada@example.com",
		Roles:          []string{"candidate:"},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/users/login":
			data, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(data), `"password":"s3cr3t!"`) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error": "authentication failed"}`)
				return
			}
			_, _ = io.WriteString(w, `{"token": "`+token+`"}`)
		case "/api/qcm/sessions":
			_, _ = io.WriteString(w, `[{"id": "s1", "title": "Finale", "level": "high", "duration_minutes": 45,
				"starts_at": "2026-03-14T09:00:00Z", "ends_at": "2026-03-14T12:00:00Z"}]`)
		case "/api/qcm/attempts/a1":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error": "missing or malformed jwt"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id": "a1", "session_id": "s1", "status": "in_progress",
				"deadline_at": "2026-03-14T09:45:05Z", "tab_switches": 2,
				"questions": [{"id": "q1"}, {"id": "q2"}], "answers": [{"question_id": "q1", "choice_ids": ["c1"]}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t!"), nil }
	nowFunc = func() time.Time { return backendNow }
	t.Cleanup(func() { nowFunc = time.Now })

	var out bytes.Buffer
	client := api.NewClient(testutil.NewConfig(srv.URL+"/api"), new(testutil.Logger))
	return newCommandLine(client, strings.NewReader(stdin), &out), &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	stdin      string
	wantErr    error
	wantErrStr string
	wantOut    []string // substrings of the output
}

func runCLITests(t *testing.T, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, tt.stdin)

			err := cli.run(tt.args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("cli.run() output = %q, want it to contain %q", out.String(), want)
				}
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "no args", args: nil, wantErr: errHelp, wantOut: []string{"Usage: olympia"}},
		{name: "help flag", args: []string{"--help"}, wantErr: errHelp, wantOut: []string{"keys", "sessions"}},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: "unexpected argument lol"},
		{name: "bad case", args: []string{"key", "kebab", "a_b"}, wantErrStr: "must be one of"},
	})
}

func Test_commandLine_keys(t *testing.T) {
	input := filepath.Join(t.TempDir(), "candidate.json")
	if err := os.WriteFile(input, []byte(`{"photoUrl": "x.png", "galleryImages": [{"imageUrl": "y.png", "order": 0}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	runCLITests(t, []cliTest{
		{
			name:    "camel from stdin",
			args:    []string{"keys", "camel"},
			stdin:   `{"candidate_id": "123", "scores": [{"is_correct": true}]}`,
			wantOut: []string{`"candidateId": "123"`, `"isCorrect": true`},
		},
		{
			name:    "snake from file",
			args:    []string{"keys", "snake", "-i", input},
			wantOut: []string{`"photo_url": "x.png"`, `"image_url": "y.png"`, `"order": 0`},
		},
		{
			name:       "missing file",
			args:       []string{"keys", "snake", "-i", input + ".missing"},
			wantErrStr: "no such file",
		},
		{
			name:       "invalid JSON",
			args:       []string{"keys", "camel"},
			stdin:      `{"a": `,
			wantErrStr: "reading JSON document",
		},
		{
			name:       "collision check",
			args:       []string{"keys", "camel", "--check"},
			stdin:      `{"fooBar": 1, "foo_bar": 2}`,
			wantErrStr: "colliding keys: $.foo_bar",
		},
		{
			name:    "keys",
			args:    []string{"key", "snake", "firstName", "photoUrl", "id"},
			wantOut: []string{"first_name\nphoto_url\nid\n"},
		},
	})
}

func Test_commandLine_api(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "login: no username", args: []string{"login"}, wantErrStr: "username is required"},
		{
			name:    "login",
			args:    []string{"login", "-u", "ada"},
			wantOut: []string{"Enter password:", "Username:", "ada@example.com", "candidate:", "2026-03-14T10:30:00Z"},
		},
		{
			name:    "sessions",
			args:    []string{"sessions"},
			wantOut: []string{"TITLE", "Finale", "45m0s", "true"},
		},
		{name: "attempt: unauthenticated", args: []string{"attempt", "a1"}, wantErrStr: "missing or malformed jwt"},
		{
			name:    "attempt",
			args:    []string{"attempt", "a1", "-u", "ada"},
			wantOut: []string{"in_progress", "15:05", "1/2", "Tab switches:"},
		},
	})
}

func Test_commandLine_loginFailed(t *testing.T) {
	cli, _ := setup(t, "")
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("wrong"), nil }

	err := cli.run([]string{"login", "-u", "ada"})
	if !api.IsUnauthorized(err) {
		t.Errorf("cli.run() error = %v, want unauthorized", err)
	}
}
