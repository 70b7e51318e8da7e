package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"go.uber.org/zap"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// userID returns the id stored by AuthMiddleware.
func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDContextKey).(int64)
	return id
}

// AuthMiddleware resolves the bearer token into the caller's user id.
type AuthMiddleware struct {
	authService *services.AuthService
	log         *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *services.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         logger,
	}
}

// Auth requires a valid bearer token. Browsers can't set headers on
// websocket upgrades, so a token query parameter is accepted there.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if !isWebSocketUpgrade(r) || tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeMessage(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			tokenString = token
		}

		id, err := m.authService.Authenticate(r.Context(), tokenString)
		if errors.Is(err, services.ErrInvalidToken) {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if err != nil {
			writeError(w, m.log, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// RateLimit allows each client address limiter's quota for the named action.
func RateLimit(limiter services.Limiter, name string, log *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := limiter.Allow(r.Context(), clientIP(r)+":"+name)
		if err != nil {
			// A broken limiter backend should not lock everyone out.
			log.Warn("rate limiter unavailable", zap.String("action", name), zap.Error(err))
		} else if !ok {
			writeError(w, log, services.ErrRateLimited)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withLogging logs one line per request.
func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// withRecover turns a panicking handler into a 500.
func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				writeMessage(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

// Hijack lets the websocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
