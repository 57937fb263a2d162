// Package server provides HTTP server initialization and lifecycle
// management for the timeline service API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/evercore/timeline/internal/config"
	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/internal/timeline"
	"github.com/evercore/timeline/web/handlers"
)

// stateReporter is implemented by stores wrapped in a circuit breaker.
type stateReporter interface {
	State() string
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server over the given store.
// It returns the actual address being listened on (useful for testing
// with port 0). The server shuts down gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store storage.EntityStore) (string, error) {
	service := timeline.NewService(store)
	apiHandlers := handlers.NewAPIHandlers(service, cfg)

	if reporter, ok := store.(stateReporter); ok {
		apiHandlers.SetBreakerState(reporter.State)
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/timeline/contact/{id}", apiHandlers.GetContactTimeline)
	apiMux.HandleFunc("GET /api/timeline/company/{id}", apiHandlers.GetCompanyTimeline)
	apiMux.HandleFunc("GET /api/timeline/deal/{id}", apiHandlers.GetDealTimeline)
	apiMux.HandleFunc("GET /api/activity/{id}", apiHandlers.GetActivitySummary)
	apiMux.HandleFunc("GET /api/engagement/{id}", apiHandlers.GetEngagementInsights)

	// Watch endpoints hold a websocket open per session.
	apiMux.HandleFunc("GET /api/timeline/contact/{id}/watch",
		apiHandlers.WatchTimeline("contact", service.GetContactTimeline))
	apiMux.HandleFunc("GET /api/timeline/company/{id}/watch",
		apiHandlers.WatchTimeline("company", service.GetCompanyTimeline))
	apiMux.HandleFunc("GET /api/timeline/deal/{id}/watch",
		apiHandlers.WatchTimeline("deal", service.GetDealTimeline))

	mux := http.NewServeMux()
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Health stays outside auth so load balancers can probe it.
	mux.HandleFunc("GET /api/health", apiHandlers.Health)

	var handler http.Handler = mux
	if cfg.Security.RateLimit > 0 {
		rateLimiter := handlers.NewRateLimiter(cfg.Security.RateLimit, cfg.Security.RateBurst)
		handler = handlers.RateLimitMiddleware(handler, rateLimiter)
	}
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Timeline API listening on %s (store: %s)", actualAddr, cfg.Storage.Engine)
	return actualAddr, nil
}
