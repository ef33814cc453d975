package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode"

	"github.com/abrezinsky/picklecup/internal/browser"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/services"
)

var errNotTerminal = errors.New("stdin is not a terminal")

const syncTimeout = 30 * time.Second

// appControl is the part of the app the shortcuts drive.
type appControl interface {
	PublicURL() string
	SyncNow(ctx context.Context) (services.SyncStatus, error)
}

// hotkeys maps single key presses to server actions.
type hotkeys struct {
	app  appControl
	log  *logger.SlogLogger
	open func(baseURL, page string) error
	quit func()
	out  io.Writer
}

// readLoop handles keys until r fails.
func (h *hotkeys) readLoop(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			h.handle(buf[0])
		}
	}
}

func (h *hotkeys) handle(key byte) {
	switch unicode.ToLower(rune(key)) {
	case 'a':
		h.openPage(browser.PageAdmin)
	case 'd':
		h.openPage(browser.PageDashboard)
	case 'h':
		if h.log.IsHTTPLoggingEnabled() {
			h.log.DisableHTTPLogging()
			fmt.Fprintf(h.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			h.log.EnableHTTPLogging()
			fmt.Fprintf(h.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case 'l':
		next := logger.NextLevel(h.log.GetLevel())
		h.log.SetLevel(next)
		fmt.Fprintf(h.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
	case 's':
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		st, err := h.app.SyncNow(ctx)
		if err != nil {
			fmt.Fprintf(h.out, "%sSync failed: %v%s\n", red, err, reset)
			return
		}
		fmt.Fprintf(h.out, "%sSaved (%s, %s)%s\n", green, st.Backend, st.Mode, reset)
	case 'q':
		h.quit()
	case '?':
		printKeyboardHelp()
	}
}

func (h *hotkeys) openPage(page string) {
	fmt.Fprintf(h.out, "%sOpening %s in browser...%s\n", cyan, page, reset)
	if err := h.open(h.app.PublicURL(), page); err != nil {
		fmt.Fprintf(h.out, "%sError opening browser: %v%s\n", red, err, reset)
	}
}
