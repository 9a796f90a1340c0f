package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"resty.dev/v3"
)

const (
	tracerName = "github.com/louisbranch/giving.space/internal/services/web/fetch"

	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 4 << 10
)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout bounds each request issued by the executor.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the transport used by the executor; tests point it
// at httptest servers.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = client
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// Executor issues GET requests against the remote API.
type Executor struct {
	client     *resty.Client
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewExecutor builds an executor rooted at baseURL.
func NewExecutor(baseURL string, opts ...Option) (*Executor, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("api base url %q must use http or https", baseURL)
	}

	e := &Executor{
		baseURL: baseURL,
		timeout: timeouts.FetchRequest,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}

	var client *resty.Client
	if e.httpClient != nil {
		client = resty.NewWithClient(e.httpClient)
	} else {
		client = resty.New()
	}
	e.client = client.
		SetBaseURL(e.baseURL).
		SetTimeout(e.timeout).
		SetHeader("Accept", "application/json").
		SetDisableWarn(true)
	return e, nil
}

// BaseURL returns the normalized API root.
func (e *Executor) BaseURL() string {
	return e.baseURL
}

// Close releases idle connections held by the executor.
func (e *Executor) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Get reads path and decodes the JSON body into target. A non-empty token is
// sent as a bearer credential. Failures are returned as *errors.Error with
// code TRANSPORT, DECODE, PRECONDITION or NOT_FOUND.
func (e *Executor) Get(ctx context.Context, path, token string, target any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := e.tracer.Start(ctx, "fetch GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", path),
			attribute.Bool("fetch.authenticated", token != ""),
		),
	)
	defer span.End()

	err := e.get(ctx, path, token, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, platformerrors.Message(err))
		span.SetAttributes(attribute.String("fetch.error_code", string(platformerrors.CodeOf(err))))
	}
	return err
}

func (e *Executor) get(ctx context.Context, path, token string, target any) error {
	req := e.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if token != "" {
		req.SetAuthToken(token)
	}

	start := time.Now()
	resp, err := req.Get(path)
	if err != nil {
		e.logger.WarnContext(ctx, "fetch request failed", "path", path, "error", err)
		return platformerrors.WrapWithMetadata(
			platformerrors.CodeTransport,
			"network request failed",
			map[string]string{"path": path},
			err,
		)
	}
	body := resp.Body
	if body != nil {
		defer body.Close()
	}

	status := resp.StatusCode()
	e.logger.DebugContext(ctx, "fetch response",
		"path", path,
		"status", status,
		"duration", time.Since(start),
	)
	if status < 200 || status > 299 {
		return statusError(path, status, body)
	}

	if target == nil {
		return nil
	}
	if body == nil {
		return platformerrors.WithMetadata(platformerrors.CodeDecode, "empty response body", map[string]string{"path": path})
	}
	if err := decodeJSON(body, target); err != nil {
		return platformerrors.WrapWithMetadata(
			platformerrors.CodeDecode,
			"malformed response body",
			map[string]string{"path": path},
			err,
		)
	}
	return nil
}

// decodeJSON decodes exactly one JSON value; anything but whitespace after it
// is malformed.
func decodeJSON(body io.Reader, target any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError classifies a non-2xx response and surfaces its message when the
// body carries one.
func statusError(path string, status int, body io.Reader) error {
	code := platformerrors.CodeFromHTTPStatus(status)
	message := http.StatusText(status)
	if message == "" {
		message = "unexpected status"
	}
	message = fmt.Sprintf("request failed with status %d: %s", status, strings.ToLower(message))

	if body != nil {
		raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
		if err == nil {
			var payload errorBody
			if json.Unmarshal(raw, &payload) == nil {
				switch {
				case strings.TrimSpace(payload.Message) != "":
					message = strings.TrimSpace(payload.Message)
				case strings.TrimSpace(payload.Error) != "":
					message = strings.TrimSpace(payload.Error)
				}
			}
		}
	}

	return platformerrors.WithMetadata(code, message, map[string]string{
		"path":   path,
		"status": strconv.Itoa(status),
	})
}
