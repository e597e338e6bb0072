package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type contextKey string

// facilityIDKey carries the authenticated facility ID through the request context
const facilityIDKey contextKey = "facilityID"

// facilityID returns the authenticated facility for the request
func facilityID(r *http.Request) string {
	id, _ := r.Context().Value(facilityIDKey).(string)
	return id
}

// loggingMiddleware logs every request with its duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}

// authMiddleware requires a valid facility session token and stores the
// facility ID on the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		if !strings.HasPrefix(header, "Bearer ") {
			s.respondWithError(w, http.StatusUnauthorized, "Missing session token")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		id, err := s.authService.VerifyToken(token)

		if err != nil {
			s.respondWithError(w, http.StatusUnauthorized, "Invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), facilityIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loginRateLimitMiddleware throttles credential attempts per source IP
func (s *Server) loginRateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)

		if err != nil {
			ip = r.RemoteAddr
		}

		if !s.loginLimiter.Allow(ip) {
			s.logger.Warn("Login rate limit exceeded", "ip", ip)
			s.respondWithError(w, http.StatusTooManyRequests, "Too many login attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}
