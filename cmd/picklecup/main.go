package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abrezinsky/picklecup/internal/app"
	"github.com/abrezinsky/picklecup/internal/browser"
	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/web"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

const shutdownTimeout = 15 * time.Second

func showBanner(publicURL, adminURL, loadedFrom string) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		"   ____  _      _    _        ____             ",
		"  |  _ \\(_) ___| | _| | ___  / ___|   _ _ __   ",
		"  | |_) | |/ __| |/ / |/ _ \\| |  | | | | '_ \\  ",
		"  |  __/| | (__|   <| |  __/| |__| |_| | |_) | ",
		"  |_|   |_|\\___|_|\\_\\_|\\___| \\____\\__,_| .__/  ",
		"                                       |_|     ",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%s%s║%s\n", cyan, yellow, padRight(line, width), cyan, reset)
	}
	fmt.Printf("  %s╠%s╣%s\n", cyan, border, reset)
	for _, line := range []string{
		" Bảng điểm:  " + publicURL,
		" Quản trị:   " + adminURL,
		" Dữ liệu:    " + loadedFrom,
	} {
		fmt.Printf("  %s║%s%s%s║%s\n", cyan, reset, padRight(line, width), cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sa%s      - Open admin page in browser\n", cyan, reset)
	fmt.Printf("    %sd%s      - Open dashboard in browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %ss%s      - Save and sync now\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

type cliFlags struct {
	fs         *flag.FlagSet
	port       *int
	dbPath     *string
	adminPw    *string
	logLevel   *string
	remote     *string
	baseURL    *string
	noBrowser  *bool
	noKeyboard *bool
	version    *bool
}

func newFlags() *cliFlags {
	fs := flag.NewFlagSet("picklecup", flag.ExitOnError)
	f := &cliFlags{
		fs:         fs,
		port:       fs.Int("port", 8080, "HTTP server port"),
		dbPath:     fs.String("db", "picklecup.db", "SQLite database path"),
		adminPw:    fs.String("adminpw", "", "Admin password, comma separated for several"),
		logLevel:   fs.String("loglevel", "info", "Log level (debug, info, warn, error)"),
		remote:     fs.String("remote", "", "Remote store: none, memory, kv, s3, dynamodb, postgres"),
		baseURL:    fs.String("baseurl", "", "Public URL printed on the QR code"),
		noBrowser:  fs.Bool("nobrowser", false, "Do not open the admin page on startup"),
		noKeyboard: fs.Bool("nokeyboard", false, "Disable keyboard shortcuts"),
		version:    fs.Bool("version", false, "Show version and exit"),
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `PickleCup - Pickleball tournament scoreboard

Usage:
  picklecup [options]

Settings are read from .env and PICKLECUP_* variables; flags win.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), `
Examples:
  picklecup                              # Port 8080, picklecup.db, in-memory remote
  picklecup -port 80 -remote none        # Local database only
  picklecup -remote s3 -nobrowser        # S3 bucket from PICKLECUP_S3_* variables
`)
	}
	return f
}

// apply copies explicitly set flags over cfg.
func (f *cliFlags) apply(cfg *config.Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Port = *f.port
		case "db":
			cfg.DBPath = *f.dbPath
		case "adminpw":
			var pws []string
			for _, pw := range strings.Split(*f.adminPw, ",") {
				if pw = strings.TrimSpace(pw); pw != "" {
					pws = append(pws, pw)
				}
			}
			cfg.AdminPasswords = pws
		case "loglevel":
			cfg.LogLevel = *f.logLevel
		case "remote":
			cfg.Remote.Backend = strings.ToLower(*f.remote)
		case "baseurl":
			cfg.PublicBaseURL = strings.TrimRight(*f.baseURL, "/")
		case "nobrowser":
			cfg.NoBrowser = *f.noBrowser
		}
	})
}

func main() {
	flags := newFlags()
	flags.fs.Parse(os.Args[1:])

	if *flags.version {
		fmt.Printf("picklecup %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appLog, *cfg, web.GetTemplatesFS(), web.GetStaticFS())
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}

	showBanner(a.PublicURL(), a.AdminURL(), a.LoadedFrom())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(fmt.Sprintf(":%d", cfg.Port))
	}()

	if !cfg.NoBrowser {
		if err := browser.OpenPage(fmt.Sprintf("http://localhost:%d", cfg.Port), browser.PageAdmin); err != nil {
			appLog.Warn("Could not open browser", "error", err)
		}
	}

	if !*flags.noKeyboard {
		keys := &hotkeys{
			app:  a,
			log:  appLog,
			open: browser.OpenPage,
			quit: stop,
			out:  os.Stdout,
		}
		restore, err := enableHotkeys(keys)
		if err != nil {
			appLog.Debug("Keyboard shortcuts unavailable", "error", err)
		} else {
			defer restore()
			printKeyboardHelp()
		}
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	select {
	case err := <-serverErr:
		if err != nil {
			a.Close()
			log.Fatal(err)
		}
	case <-ctx.Done():
	}

	fmt.Printf("%sShutting down server...%s\n", yellow, reset)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Shutdown incomplete", "error", err)
	}
}
