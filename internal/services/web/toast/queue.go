// Package toast keeps the in-memory list of transient notifications shown by
// the web surface.
//
// The queue only stores and removes entries. Duration is advisory metadata:
// the presentation layer decides when a toast has been visible long enough
// and dismisses it.
package toast

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/id"
)

// Variant is the visual style of a toast.
type Variant string

const (
	// VariantSuccess marks a confirmation.
	VariantSuccess Variant = "success"
	// VariantError marks a failure.
	VariantError Variant = "error"
)

// ParseVariant validates a variant name. An empty name is a success toast.
func ParseVariant(raw string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(raw))) {
	case "", VariantSuccess:
		return VariantSuccess, nil
	case VariantError:
		return VariantError, nil
	default:
		return "", platformerrors.WithMetadata(
			platformerrors.CodeInvalidArgument,
			"unknown toast variant",
			map[string]string{"variant": raw},
		)
	}
}

// Toast is one notification. A zero Duration means the presentation layer
// picks its own default.
type Toast struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Variant   Variant       `json:"variant"`
	Duration  time.Duration `json:"duration,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock sets the clock used for CreatedAt.
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithIDGenerator replaces the toast id generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(q *Queue) {
		if gen != nil {
			q.newID = gen
		}
	}
}

// WithLimit caps the number of visible toasts; showing one more drops the
// oldest. A limit of zero or less keeps every toast.
func WithLimit(limit int) Option {
	return func(q *Queue) {
		q.limit = limit
	}
}

// Queue is an ordered list of visible toasts. It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	clock  func() time.Time
	newID  func() (string, error)
}

// NewQueue builds an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		clock: time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Show appends a toast with a fresh id. Identical messages are never merged.
func (q *Queue) Show(message string, variant Variant, duration time.Duration) (Toast, error) {
	variant, err := ParseVariant(string(variant))
	if err != nil {
		return Toast{}, err
	}
	if duration < 0 {
		duration = 0
	}
	toastID, err := q.newID()
	if err != nil {
		return Toast{}, fmt.Errorf("generate toast id: %w", err)
	}

	t := Toast{
		ID:        toastID,
		Message:   message,
		Variant:   variant,
		Duration:  duration,
		CreatedAt: q.clock().UTC(),
	}
	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	if q.limit > 0 && len(q.toasts) > q.limit {
		q.toasts = slices.Delete(q.toasts, 0, len(q.toasts)-q.limit)
	}
	q.mu.Unlock()
	return t, nil
}

// ShowSuccess appends a success toast without a duration.
func (q *Queue) ShowSuccess(message string) (Toast, error) {
	return q.Show(message, VariantSuccess, 0)
}

// ShowError appends an error toast without a duration.
func (q *Queue) ShowError(message string) (Toast, error) {
	return q.Show(message, VariantError, 0)
}

// Dismiss removes the toast with toastID. Unknown ids are ignored. It reports
// whether a toast was removed.
func (q *Queue) Dismiss(toastID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	before := len(q.toasts)
	q.toasts = slices.DeleteFunc(q.toasts, func(t Toast) bool {
		return t.ID == toastID
	})
	return len(q.toasts) != before
}

// DismissAll clears the queue.
func (q *Queue) DismissAll() {
	q.mu.Lock()
	q.toasts = nil
	q.mu.Unlock()
}

// Toasts returns a copy of the visible toasts in insertion order.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}
