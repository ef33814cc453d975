package kvrest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abrezinsky/picklecup/internal/logger"
)

// noopLogger implements logger.Logger but discards all output
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
func (noopLogger) SetLevel(level slog.Level)     {}
func (noopLogger) GetLevel() slog.Level          { return slog.LevelInfo }
func (noopLogger) EnableHTTPLogging()            {}
func (noopLogger) DisableHTTPLogging()           {}
func (noopLogger) IsHTTPLoggingEnabled() bool    { return false }

var _ logger.Logger = noopLogger{}

func TestHTTPClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get/TOURNAMENT_DATA" {
			t.Errorf("expected path /get/TOURNAMENT_DATA, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"result":"{\"categories\":{}}"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", "secret", noopLogger{})
	value, found, err := client.Get(context.Background(), TournamentKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(value) != `{"categories":{}}` {
		t.Errorf("value = %s", value)
	}
	if client.BaseURL() != server.URL {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", client.BaseURL())
	}
}

func TestHTTPClient_Get_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", noopLogger{})
	value, found, err := client.Get(context.Background(), "nothing")
	if err != nil || found || value != nil {
		t.Errorf("Get = %q, %v, %v; want nil, false, nil", value, found, err)
	}
}

func TestHTTPClient_Get_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"command error", http.StatusOK, `{"error":"WRONGTYPE"}`},
		{"invalid json", http.StatusOK, `not json`},
		{"non-string result", http.StatusOK, `{"result":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "secret", noopLogger{})
			if _, _, err := client.Get(context.Background(), TournamentKey); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHTTPClient_Set(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/set/TOURNAMENT_DATA" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"result":"OK"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", noopLogger{})
	if err := client.Set(context.Background(), TournamentKey, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if gotBody != `{"a":1}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestHTTPClient_Set_NotAcknowledged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", noopLogger{})
	err := client.Set(context.Background(), TournamentKey, []byte("{}"))
	if err == nil || !strings.Contains(err.Error(), "did not acknowledge") {
		t.Errorf("expected acknowledgement error, got %v", err)
	}
}

func TestHTTPClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"result":"PONG"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", noopLogger{})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, "secret", noopLogger{})
	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected connection error")
	}
}

func TestMockClient(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient(WithValue("k", []byte("v")))

	v, found, err := m.Get(ctx, "k")
	if err != nil || !found || string(v) != "v" {
		t.Errorf("Get = %q, %v, %v", v, found, err)
	}
	if _, found, _ := m.Get(ctx, "missing"); found {
		t.Error("missing key reported as found")
	}
	m.Set(ctx, "k", []byte("w"))
	if m.SetCount() != 1 {
		t.Errorf("SetCount = %d", m.SetCount())
	}

	boom := errors.New("boom")
	failing := NewMockClient(WithGetError(boom), WithSetError(boom), WithPingError(boom))
	if _, _, err := failing.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Get err = %v", err)
	}
	if err := failing.Set(ctx, "k", nil); !errors.Is(err, boom) {
		t.Errorf("Set err = %v", err)
	}
	if err := failing.Ping(ctx); !errors.Is(err, boom) {
		t.Errorf("Ping err = %v", err)
	}
}
