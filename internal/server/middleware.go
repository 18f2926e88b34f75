package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"studybridge/internal/utils"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyVisitorID contextKey = "visitor_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// VisitorCookie assigns every browser a stable anonymous ID carried in an
// encrypted cookie. The ID keys popup frequency-cap records and is recorded
// as the uploader of intake documents.
func (s *Service) VisitorCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var visitorID string

		if cookie, err := r.Cookie(s.config.VisitorCookieName); err == nil {
			if err := s.cookie.Decode(s.config.VisitorCookieName, cookie.Value, &visitorID); err != nil {
				s.logger.WithError(err).Debug("failed to decode visitor cookie")
				visitorID = ""
			}
		}

		if visitorID == "" {
			visitorID = utils.NanoIDSize(21)

			encoded, err := s.cookie.Encode(s.config.VisitorCookieName, visitorID)
			if err != nil {
				s.logger.WithError(err).Error("failed to encode visitor cookie")
				s.internalServerError(w)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     s.config.VisitorCookieName,
				Value:    encoded,
				HttpOnly: true,
				Secure:   true,
				SameSite: http.SameSiteLaxMode,
				Path:     "/",
				MaxAge:   int((180 * 24 * time.Hour).Seconds()),
			})
		}

		ctx := context.WithValue(r.Context(), contextKeyVisitorID, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) visitorIDFromContext(ctx context.Context) string {
	visitorID, _ := ctx.Value(contextKeyVisitorID).(string)
	return visitorID
}
