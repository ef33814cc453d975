package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/abrezinsky/picklecup/internal/browser"
	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/services"
)

type fakeApp struct {
	syncErr error
	synced  int
}

func (f *fakeApp) PublicURL() string { return "http://192.168.1.20:8080" }

func (f *fakeApp) SyncNow(ctx context.Context) (services.SyncStatus, error) {
	f.synced++
	if f.syncErr != nil {
		return services.SyncStatus{}, f.syncErr
	}
	return services.SyncStatus{Backend: "s3", Mode: "real-db"}, nil
}

type opened struct {
	base, page string
}

func newTestHotkeys() (*hotkeys, *fakeApp, *[]opened, *bytes.Buffer, *int) {
	app := &fakeApp{}
	var pages []opened
	var out bytes.Buffer
	quits := 0
	h := &hotkeys{
		app: app,
		log: logger.NewWithWriter(io.Discard, slog.LevelInfo),
		open: func(base, page string) error {
			pages = append(pages, opened{base, page})
			return nil
		},
		quit: func() { quits++ },
		out:  &out,
	}
	return h, app, &pages, &out, &quits
}

func TestHotkeys_OpenPages(t *testing.T) {
	h, _, pages, _, _ := newTestHotkeys()

	h.handle('a')
	h.handle('D')

	want := []opened{
		{"http://192.168.1.20:8080", browser.PageAdmin},
		{"http://192.168.1.20:8080", browser.PageDashboard},
	}
	if len(*pages) != len(want) {
		t.Fatalf("opened %v, want %v", *pages, want)
	}
	for i := range want {
		if (*pages)[i] != want[i] {
			t.Errorf("opened[%d] = %v, want %v", i, (*pages)[i], want[i])
		}
	}
}

func TestHotkeys_OpenError(t *testing.T) {
	h, _, _, out, _ := newTestHotkeys()
	h.open = func(string, string) error { return errors.New("no display") }

	h.handle('a')
	if !strings.Contains(out.String(), "no display") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHotkeys_ToggleHTTPLogging(t *testing.T) {
	h, _, _, _, _ := newTestHotkeys()
	before := h.log.IsHTTPLoggingEnabled()

	h.handle('h')
	if h.log.IsHTTPLoggingEnabled() == before {
		t.Error("first press should toggle HTTP logging")
	}
	h.handle('h')
	if h.log.IsHTTPLoggingEnabled() != before {
		t.Error("second press should toggle it back")
	}
}

func TestHotkeys_CycleLogLevel(t *testing.T) {
	h, _, _, _, _ := newTestHotkeys()

	want := []slog.Level{slog.LevelWarn, slog.LevelError, slog.LevelDebug, slog.LevelInfo}
	for _, level := range want {
		h.handle('l')
		if got := h.log.GetLevel(); got != level {
			t.Fatalf("level = %v, want %v", got, level)
		}
	}
}

func TestHotkeys_Sync(t *testing.T) {
	h, app, _, out, _ := newTestHotkeys()

	h.handle('s')
	if app.synced != 1 || !strings.Contains(out.String(), "Saved (s3, real-db)") {
		t.Errorf("synced = %d, output = %q", app.synced, out.String())
	}

	out.Reset()
	app.syncErr = errors.New("bucket missing")
	h.handle('S')
	if !strings.Contains(out.String(), "Sync failed: bucket missing") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHotkeys_QuitAndUnknown(t *testing.T) {
	h, app, pages, out, quits := newTestHotkeys()

	h.handle('x')
	h.handle('\n')
	if *quits != 0 || app.synced != 0 || len(*pages) != 0 || out.Len() != 0 {
		t.Error("unknown keys should do nothing")
	}

	h.handle('q')
	if *quits != 1 {
		t.Errorf("quit called %d times, want 1", *quits)
	}
}

func TestHotkeys_ReadLoopStopsAtEOF(t *testing.T) {
	h, _, _, _, quits := newTestHotkeys()

	h.readLoop(strings.NewReader("xq"))
	if *quits != 1 {
		t.Errorf("quit called %d times, want 1", *quits)
	}
}

func TestFlags_ApplyOnlySetFlags(t *testing.T) {
	f := newFlags()
	if err := f.fs.Parse([]string{"-port", "9090", "-adminpw", " a1 , ,b2 ", "-remote", "NONE", "-baseurl", "http://giai.vn/"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg := config.Default()
	cfg.DBPath = "from-env.db"
	f.apply(cfg)

	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.DBPath != "from-env.db" {
		t.Errorf("DBPath = %q, unset flags must not override", cfg.DBPath)
	}
	if strings.Join(cfg.AdminPasswords, "|") != "a1|b2" {
		t.Errorf("AdminPasswords = %v", cfg.AdminPasswords)
	}
	if cfg.Remote.Backend != config.BackendNone {
		t.Errorf("Backend = %q", cfg.Remote.Backend)
	}
	if cfg.PublicBaseURL != "http://giai.vn" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.NoBrowser {
		t.Error("NoBrowser should keep its default")
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("Bảng", 6); got != "Bảng  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Errorf("padRight = %q", got)
	}
}
