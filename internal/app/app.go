package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/picklecup/internal/auth"
	"github.com/abrezinsky/picklecup/internal/autosave"
	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/handlers"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/remote"
	"github.com/abrezinsky/picklecup/internal/repository"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/state"
	"github.com/abrezinsky/picklecup/internal/websocket"
)

// App holds all application dependencies
type App struct {
	log       logger.Logger
	cfg       config.Config
	repo      *repository.Repository
	container *state.Container
	store     remote.Store
	saver     *autosave.Scheduler
	hub       *websocket.Hub
	handlers  *handlers.Handlers
	syncSvc   *services.SyncService

	publicURL   string
	loadedFrom  string
	unsubscribe func()

	closeOnce sync.Once
	mu        sync.Mutex
	server    *http.Server
	stopWatch func()
	closed    bool
}

// New wires the application and restores the last known tournament.
func New(ctx context.Context, log logger.Logger, cfg config.Config, templatesFS, staticFS fs.FS) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := remote.New(ctx, cfg.Remote, log)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("remote store: %w", err)
	}

	a := &App{
		log:       log,
		cfg:       cfg,
		repo:      repo,
		container: state.New(),
		store:     store,
	}

	targets := []autosave.Target{repo}
	if store != nil {
		targets = append(targets, store)
	}
	a.saver = autosave.New(a.container, targets, log,
		autosave.WithDelay(cfg.AutosaveDelay),
		autosave.WithStatusFunc(func(st autosave.Status) {
			a.hub.BroadcastSaveStatus(st)
		}),
	)

	tournament := services.NewTournamentService(log, a.container, repo)
	results := services.NewResultsService(log, a.container, repo)
	a.syncSvc = services.NewSyncService(log, a.container, repo, store, a.saver)

	adminAuth, err := auth.New(cfg.AdminPasswords...)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.hub = websocket.New(log, tournament, a.syncSvc)
	a.hub.Start()
	a.unsubscribe = a.container.Subscribe(a.relay)

	a.publicURL = a.resolvePublicURL(ctx)

	h, err := handlers.New(
		tournament,
		results,
		a.syncSvc,
		templatesFS,
		handlers.NewStaticServer(staticFS),
		adminAuth,
		a.hub,
		log,
		handlers.Options{PublicURL: a.publicURL, CORSOrigins: cfg.CORSOrigins},
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	a.handlers = h

	a.loadedFrom, err = a.syncSvc.InitialLoad(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initial load: %w", err)
	}
	a.log.Info("Tournament restored", "source", a.loadedFrom)

	return a, nil
}

// relay fans container changes out to the autosave scheduler and dashboards.
func (a *App) relay(e state.Event) {
	a.saver.Notify(e)
	if e.Category == "" {
		a.hub.BroadcastTournament(a.container.Snapshot())
		return
	}
	cat, err := a.container.Category(e.Category)
	if err != nil {
		a.log.Warn("Dropping update for unknown category", "category", e.Category)
		return
	}
	a.hub.BroadcastCategory(e.Category, cat)
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// PublicURL is the address printed on the dashboard QR code.
func (a *App) PublicURL() string {
	return a.publicURL
}

// AdminURL is where organisers log in.
func (a *App) AdminURL() string {
	return a.publicURL + "/admin"
}

// LoadedFrom reports where the tournament was restored from at startup.
func (a *App) LoadedFrom() string {
	return a.loadedFrom
}

// SyncNow saves immediately to every target.
func (a *App) SyncNow(ctx context.Context) (services.SyncStatus, error) {
	return a.syncSvc.Upload(ctx)
}

// Run starts the HTTP server and blocks until Shutdown is called.
func (a *App) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()
	a.watchRemote()

	a.log.Info("Server starting", "url", a.publicURL)
	a.log.Info("Admin URL", "url", a.AdminURL())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchRemote starts polling the remote store for updates from other devices.
func (a *App) watchRemote() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.stopWatch != nil || a.store == nil || a.cfg.RemotePoll <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.syncSvc.Watch(ctx, a.cfg.RemotePoll)
	}()
	a.stopWatch = func() {
		cancel()
		<-done
	}
}

// Shutdown stops the server, writes any pending changes and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.saver.Status().Pending {
		if err := a.saver.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
	}
	a.Close()
	return errors.Join(errs...)
}

// Close releases resources without saving. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		stop := a.stopWatch
		a.mu.Unlock()
		if stop != nil {
			stop()
		}
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.hub != nil {
			a.hub.Stop()
		}
		a.closeResources()
	})
}

func (a *App) closeResources() {
	a.saver.Stop()
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("Failed to close remote store", "error", err)
		}
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
}

// resolvePublicURL picks the configured base URL, then the LAN address.
// The stored base_url is only used when no LAN address can be found.
func (a *App) resolvePublicURL(ctx context.Context) string {
	if a.cfg.PublicBaseURL != "" {
		return strings.TrimRight(a.cfg.PublicBaseURL, "/")
	}
	ip := getPreferredIP(realNetworkProvider{})
	lan := fmt.Sprintf("http://%s:%d", ip, a.cfg.Port)
	if ip != "localhost" {
		a.setDefaultBaseURL(lan)
		return lan
	}
	if stored, err := a.repo.GetSetting(ctx, repository.SettingBaseURL); err == nil && stored != "" {
		return strings.TrimRight(stored, "/")
	}
	return lan
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.repo.GetSetting(ctx, repository.SettingBaseURL)

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, repository.SettingBaseURL, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for phones on the venue Wi-Fi.
// Private ranges win; "localhost" is returned when nothing usable is up.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		ipStr := ip.String()
		if strings.HasPrefix(ipStr, "192.168.") ||
			strings.HasPrefix(ipStr, "10.") ||
			isPrivate172(ip) {
			return ipStr
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
