package httpserver

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Middleware wraps a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain applies mw so that the first one listed runs first.
func Chain(routeFunction http.HandlerFunc, mw ...Middleware) http.HandlerFunc {
	chainedHandler := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// Logging logs each request at debug level, tagged with component.
func Logging(component string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next(w, r)
			log.Debug().
				Str("component", component).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("took", time.Since(start)).
				Msg("Request")
		}
	}
}

// Recover turns a handler panic into a 500 instead of taking the process down.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// FrameSecurity stops pages from being embedded in other sites.
func FrameSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		next(w, r)
	}
}

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
}

// Serve runs server until ctx is done, then shuts it down gracefully. It returns
// early with an error if the server cannot listen.
func Serve(ctx context.Context, server *http.Server) error {
	failed := make(chan error, 1)
	go func() {
		log.Debug().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- errors.Wrapf(err, "[httpserver Serve] listen on %s", server.Addr)
		}
		close(failed)
	}()

	select {
	case err, ok := <-failed:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "[httpserver Serve] shutdown")
	}
	return nil
}
