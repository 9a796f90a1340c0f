package toast

import "time"

// Handle is the notification surface handed to page code.
type Handle struct {
	Toasts       func() []Toast
	ShowToast    func(message string, variant Variant, duration time.Duration) (Toast, error)
	ShowSuccess  func(message string) (Toast, error)
	ShowError    func(message string) (Toast, error)
	DismissToast func(id string) bool
	DismissAll   func()
}

// Use returns a handle bound to q.
func (q *Queue) Use() Handle {
	return Handle{
		Toasts:       q.Toasts,
		ShowToast:    q.Show,
		ShowSuccess:  q.ShowSuccess,
		ShowError:    q.ShowError,
		DismissToast: q.Dismiss,
		DismissAll:   q.DismissAll,
	}
}
