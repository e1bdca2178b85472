// Package web provides the HTTP server and web interface for go-liftlog
package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-liftlog/internal/config"
)

// WebServer represents the web server
type WebServer struct {
	Router    *gin.Engine
	Config    *config.WebConfig
	Templates *TemplateSet

	http           *http.Server
	trustedProxies []*net.IPNet
}

// NewServer creates a new web server instance.
// The gin mode is left to the caller.
func NewServer(webconfig *config.WebConfig) (*WebServer, error) {
	tmplFS, err := templateSource(webconfig.TemplateDir)
	if err != nil {
		return nil, err
	}
	templates, err := NewTemplateSet(tmplFS, layoutTemplate, pageTemplates())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	trusted, err := parseTrustedProxies(webconfig.TrustedProxies)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.RedirectTrailingSlash = false
	router.HTMLRender = templates
	if err := router.SetTrustedProxies(webconfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	server := &WebServer{
		Router:         router,
		Config:         webconfig,
		Templates:      templates,
		trustedProxies: trusted,
		http: &http.Server{
			Addr:              webconfig.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Logger outside Recovery so recovered panics still get an access log line
	if webconfig.AccessLog {
		router.Use(server.ApacheLogFormat())
	}
	router.Use(gin.Recovery())
	// Proxy headers first so the security middleware sees the original scheme
	router.Use(server.ReverseProxyMiddleware())
	router.Use(secure.New(server.secureConfig()))
	router.Use(server.ErrorLogMiddleware())

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}
	return server, nil
}

// secureConfig configures security headers based on SSL setup
func (s *WebServer) secureConfig() secure.Config {
	cfg := secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		IsDevelopment:         s.Config.Debug,
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if s.Config.SSL {
		cfg.SSLRedirect = true
		cfg.STSSeconds = 31536000
		cfg.STSIncludeSubdomains = true
		cfg.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	return cfg
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() error {
	staticFS, err := staticSource(s.Config.StaticDir)
	if err != nil {
		return err
	}
	if s.Config.Debug && s.Config.StaticDir == "" {
		if files, err := ListEmbeddedFiles(); err == nil {
			log.Printf("[WEB]: Serving %d embedded static files: %v", len(files), files)
		}
	}
	static := StaticHandler("/static", staticFS)
	s.Router.GET("/static/*filepath", static)
	s.Router.HEAD("/static/*filepath", static)

	for _, page := range pages {
		h := s.pageHandler(page)
		s.Router.GET(page.Route, h)
		s.Router.HEAD(page.Route, h)
	}
	return nil
}

// Handler returns the HTTP handler of the server
func (s *WebServer) Handler() http.Handler {
	return s.Router
}

// Start starts the web server with SSL support if configured.
// It blocks until the server stops and returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	if s.Config.SSL {
		log.Printf("[WEB]: Starting HTTPS server on %s", s.http.Addr)
		return s.http.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	}
	log.Printf("[WEB]: Starting HTTP server on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for active requests until ctx expires
func (s *WebServer) Shutdown(ctx context.Context) error {
	log.Printf("[WEB]: Shutting down web server...")
	return s.http.Shutdown(ctx)
}

// WatchTemplates reloads templates on change when running in debug mode from an on-disk template dir.
// It is a no-op otherwise.
func (s *WebServer) WatchTemplates(ctx context.Context) error {
	if !s.Config.Debug || s.Config.TemplateDir == "" {
		return nil
	}
	return WatchTemplates(ctx, s.Config.TemplateDir, s.Templates)
}

// ReverseProxyMiddleware handles X-Forwarded-Proto and X-Forwarded-Host when running behind a reverse proxy.
// Headers are only honoured when the direct peer is a trusted proxy; the client IP itself is resolved by gin.
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.fromTrustedProxy(c.Request.RemoteAddr) {
			c.Next()
			return
		}

		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

// ErrorLogMiddleware logs errors recorded on the context, e.g. template execution failures
func (s *WebServer) ErrorLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			log.Printf("[WEB]: Error on %s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
	}
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}

func (s *WebServer) fromTrustedProxy(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range s.trustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// parseTrustedProxies accepts plain IPs and CIDRs
func parseTrustedProxies(proxies []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil && ip.To4() != nil {
				p += "/32"
			} else {
				p += "/128"
			}
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}
