// Package httpx provides HTTP middleware and JSON response helpers used by the
// web preview surface.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/id"
	"github.com/louisbranch/giving.space/internal/platform/requestctx"
)

const (
	requestIDHeader = "X-Request-ID"

	// ClientCookieName carries the browser client id that scopes per-visitor
	// state such as toasts.
	ClientCookieName = "giving_space_client"

	clientCookieMaxAge = 30 * 24 * time.Hour
	maxClientIDLength  = 64
)

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// ErrorBody is the JSON shape of a failed read or request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorBody describes err for JSON responses. A nil error yields nil.
func NewErrorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	return &ErrorBody{
		Code:    string(platformerrors.CodeOf(err)),
		Message: platformerrors.Message(err),
	}
}

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = fmt.Sprintf("web-%d-%d", time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set(requestIDHeader, requestID)
			}
			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken copies the Authorization bearer token into the request context
// so data reads fetch as the caller.
func BearerToken() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestctx.BearerTokenFromHeader(r.Header.Get("Authorization"))
			if token != "" {
				r = r.WithContext(requestctx.WithBearerToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID reads the client id cookie into the request context, issuing a new
// id when the cookie is missing or malformed.
func ClientID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if cookie, err := r.Cookie(ClientCookieName); err == nil && validClientID(cookie.Value) {
				clientID = cookie.Value
			}
			if clientID == "" {
				generated, err := id.NewID()
				if err == nil {
					clientID = generated
					http.SetCookie(w, &http.Cookie{
						Name:     ClientCookieName,
						Value:    clientID,
						Path:     "/",
						MaxAge:   int(clientCookieMaxAge / time.Second),
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}
			if clientID != "" {
				r = r.WithContext(requestctx.WithClientID(r.Context(), clientID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validClientID(value string) bool {
	if value == "" || len(value) > maxClientIDLength {
		return false
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", r.Header.Get(requestIDHeader),
						"panic", fmt.Sprint(recovered),
						"stack", strings.TrimSpace(string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LogRequests writes one debug record per request.
func LogRequests(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", r.Header.Get(requestIDHeader),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError writes err as a JSON error body with the status of its code.
func WriteError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	_ = WriteJSON(w, platformerrors.CodeOf(err).HTTPStatus(), struct {
		Error *ErrorBody `json:"error"`
	}{Error: NewErrorBody(err)})
}

// RequestContext returns r.Context() with a nil-safe fallback to context.Background().
func RequestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}
