// Package notify renders newly created alerts in the terminal while
// the monitor runs in the foreground.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"finterm/internal/models"
)

// Handler consumes a formatted alert notification.
type Handler func(alert models.Alert)

// TerminalNotifier buffers alerts on a channel and hands them to
// registered handlers on its own goroutine, so a slow terminal never
// blocks the sweep that created the alert.
type TerminalNotifier struct {
	alerts   chan models.Alert
	handlers []Handler
	mu       sync.RWMutex

	enabled     bool
	bellEnabled bool
}

// NewTerminalNotifier creates a notifier with the given buffer size.
func NewTerminalNotifier(bufferSize int) *TerminalNotifier {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &TerminalNotifier{
		alerts:      make(chan models.Alert, bufferSize),
		enabled:     true,
		bellEnabled: true,
	}
}

// SetEnabled enables or disables the notifier.
func (tn *TerminalNotifier) SetEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.enabled = enabled
}

// SetBellEnabled enables or disables the terminal bell.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

// AddHandler registers a handler invoked for every notification.
func (tn *TerminalNotifier) AddHandler(handler Handler) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.handlers = append(tn.handlers, handler)
}

// Notify enqueues an alert for display. When the buffer is full the
// oldest pending notification is dropped.
func (tn *TerminalNotifier) Notify(alert models.Alert) {
	tn.mu.RLock()
	enabled := tn.enabled
	tn.mu.RUnlock()

	if !enabled {
		return
	}

	select {
	case tn.alerts <- alert:
	default:
		select {
		case <-tn.alerts:
		default:
		}
		tn.alerts <- alert
	}
}

// DispatchAlert satisfies the alert service's notifier contract.
func (tn *TerminalNotifier) DispatchAlert(ctx context.Context, alert models.Alert) {
	tn.Notify(alert)
}

// Start begins processing notifications until the context is done.
func (tn *TerminalNotifier) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case alert := <-tn.alerts:
				tn.process(alert)
			}
		}
	}()
}

func (tn *TerminalNotifier) process(alert models.Alert) {
	tn.mu.RLock()
	handlers := tn.handlers
	bellEnabled := tn.bellEnabled
	tn.mu.RUnlock()

	if bellEnabled && alert.Severity != models.SeverityInfo {
		fmt.Print("\a")
	}

	for _, handler := range handlers {
		handler(alert)
	}
}

// FormatAlert formats one alert as a single terminal line.
func FormatAlert(alert models.Alert, colorEnabled bool) string {
	var color, reset string
	if colorEnabled {
		reset = "\033[0m"
		switch alert.Severity {
		case models.SeverityCritical:
			color = "\033[31m"
		case models.SeverityWarning:
			color = "\033[33m"
		default:
			color = "\033[36m"
		}
	}

	ts := alert.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s[%s] %s%s", color, ts.Format("15:04:05"),
		strings.ToUpper(string(alert.Severity)), reset))
	if alert.Symbol != "" {
		sb.WriteString(" | " + alert.Symbol)
	}
	sb.WriteString(" | " + alert.Title)
	if alert.Message != "" && alert.Message != alert.Title {
		sb.WriteString("\n    " + alert.Message)
	}
	return sb.String()
}

// DefaultHandler returns a handler that prints alerts to stdout.
func DefaultHandler(colorEnabled bool) Handler {
	return func(alert models.Alert) {
		fmt.Println(FormatAlert(alert, colorEnabled))
	}
}
