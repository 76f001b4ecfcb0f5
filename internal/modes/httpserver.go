package modes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/version"
)

// HTTPServerConfig holds configuration for the HTTP server
type HTTPServerConfig struct {
	Host          string
	Port          int
	TransportType string // MCP transport: "sse" or "streamable"
}

// newHTTPHandler builds the routes: the browser client, its JSON API, the
// MCP endpoint and a health check.
func newHTTPHandler(config HTTPServerConfig, env *Env, searcher search.Searcher) (http.Handler, error) {
	l := logger.GetLogger()

	getServer := func(r *http.Request) *mcp.Server {
		l.Debug("MCP session requested", zap.String("remote", r.RemoteAddr))
		return createMCPServer(env, searcher)
	}

	var mcpHandler http.Handler
	switch config.TransportType {
	case "sse":
		mcpHandler = mcp.NewSSEHandler(getServer, nil)
	case "streamable":
		mcpHandler = mcp.NewStreamableHTTPHandler(getServer, nil)
	default:
		return nil, fmt.Errorf("invalid transport type: %s (must be 'sse' or 'streamable')", config.TransportType)
	}

	mux := http.NewServeMux()
	newWebUI(env, searcher).register(mux)
	mux.Handle("/mcp", corsMiddleware(mcpHandler))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return accessLogMiddleware(mux, l), nil
}

// StartHTTPServer serves until ctx is cancelled, then shuts down gracefully.
func StartHTTPServer(ctx context.Context, config HTTPServerConfig, env *Env) error {
	l := logger.GetLogger()
	defer l.Sync()

	l.Info("Starting HTTP server",
		zap.String("name", "booksearch"),
		zap.String("version", version.GetVersion()),
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("transport", config.TransportType),
	)

	handler, err := newHTTPHandler(config, env, env.Searcher())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("HTTP server listening",
			zap.String("address", addr),
			zap.String("mcpEndpoint", "/mcp"),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("HTTP server failed", zap.Error(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Info("Shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// corsMiddleware lets browser-based MCP clients reach /mcp
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id, Mcp-Protocol-Version")
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming MCP transports working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func accessLogMiddleware(next http.Handler, l *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
