// Web server for go-liftlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-liftlog/internal/config"
	"github.com/go-while/go-liftlog/internal/web"
)

var (
	// command-line flags
	configFile   string
	envFile      string
	webaddr      string
	webport      int
	webssl       bool
	webcertFile  string
	webkeyFile   string
	debug        bool
	templateDir  string
	staticDir    string
	pprofAddr    string
	printVersion bool
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", config.DefaultConfigFile, "TOML config file (skipped if missing)")
	flag.StringVar(&envFile, "envfile", config.DefaultEnvFile, "dotenv file loaded before environment overrides (skipped if missing)")
	flag.StringVar(&webaddr, "webaddr", "", "Web server listen address (default: 127.0.0.1)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 5050)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.BoolVar(&debug, "debug", false, "Debug mode: gin debug logging and template reloading (with -templates)")
	flag.StringVar(&templateDir, "templates", "", "Serve templates from this directory instead of the embedded ones")
	flag.StringVar(&staticDir, "static", "", "Serve static files from this directory instead of the embedded ones")
	flag.StringVar(&pprofAddr, "pprof", "", "Start a pprof web listener on this address (e.g. 127.0.0.1:51111)")
	flag.BoolVar(&printVersion, "version", false, "Print version and exit")
	flag.Parse()

	if printVersion {
		fmt.Println(appVersion)
		os.Exit(0)
	}

	log.Printf("Starting go-liftlog web server (version: %s)", appVersion)

	mainConfig, err := config.Load(configFile, envFile)
	if err != nil {
		log.Fatalf("[WEB]: Error loading config: %v", err)
	}
	webConfig := &mainConfig.Web
	applyFlags(webConfig)

	if err := webConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	log.Printf("[WEB]: Using WEB configuration: %#v", webConfig)

	if webConfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if pprofAddr != "" {
		startProfiler(pprofAddr)
	}

	server, err := web.NewServer(webConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.WatchTemplates(ctx); err != nil {
		log.Printf("[WEB]: Warning: template reloading disabled: %v", err)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Printf("[WEB]: Starting go-liftlog web server on %s://%s", webConfig.Protocol(), webConfig.Addr())

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			webServerErrChan <- err
		}
	}()

	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	select {
	case <-sigChan:
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Fatalf("[WEB]: Failed to start web server: %v", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), webConfig.ShutdownTimeoutDuration())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WEB]: Error during shutdown: %v", err)
		os.Exit(1)
	}
	log.Printf("[WEB]: Graceful shutdown completed")
} // end main

// applyFlags overrides config values with command-line flags if provided
func applyFlags(webConfig *config.WebConfig) {
	if webaddr != "" {
		webConfig.ListenAddr = webaddr
		log.Printf("[WEB]: Overriding listen address with command-line flag: %s", webConfig.ListenAddr)
	}
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	} else {
		log.Printf("[WEB]: No port flag provided, using: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
		log.Printf("[WEB]: SSL cert file set: %s", webConfig.CertFile)
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
		log.Printf("[WEB]: SSL key file set: %s", webConfig.KeyFile)
	}
	if debug {
		webConfig.Debug = true
	}
	if templateDir != "" {
		webConfig.TemplateDir = templateDir
	}
	if staticDir != "" {
		webConfig.StaticDir = staticDir
	}
}
