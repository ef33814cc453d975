package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/picklecup/internal/auth"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// PageData holds the data passed to page templates
type PageData struct {
	Title     string
	EventName string
	PublicURL string
	Error     string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index      *template.Template
	AdminLogin *template.Template
	Admin      *template.Template
}

// Options carries settings that come from configuration rather than services.
type Options struct {
	// PublicURL is the address encoded in the dashboard QR code.
	PublicURL   string
	CORSOrigins []string
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Tournament   services.TournamentServicer
	Results      services.ResultsServicer
	Sync         services.SyncServicer
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Log          HTTPLogger
	opts         Options
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	tournament services.TournamentServicer,
	results services.ResultsServicer,
	sync services.SyncServicer,
	templatesFS fs.FS,
	staticServer http.Handler,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
	opts Options,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Tournament:   tournament,
		Results:      results,
		Sync:         sync,
		Auth:         adminAuth,
		Hub:          hub,
		Log:          log,
		opts:         opts,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}
	if t.Admin, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/tournament.html"); err != nil {
		return nil, fmt.Errorf("admin template: %w", err)
	}

	return t, nil
}
