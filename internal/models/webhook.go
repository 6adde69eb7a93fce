package models

import "time"

// WebhookFailureCeiling is the consecutive-failure count at which an
// endpoint is suspended by the dispatcher. The endpoint is not deleted;
// the user must reset it explicitly.
const WebhookFailureCeiling = 5

// WebhookEndpoint represents an external alert delivery target.
type WebhookEndpoint struct {
	ID         int64
	URL        string
	Name       string
	Enabled    bool
	AlertTypes []AlertType // allow-list; empty = all types
	CreatedAt  time.Time
	LastUsedAt *time.Time
	FailCount  int
}

// Suspended reports whether the endpoint has hit the failure ceiling.
func (w WebhookEndpoint) Suspended() bool {
	return w.FailCount >= WebhookFailureCeiling
}

// Accepts reports whether the endpoint's allow-list admits alerts of
// the given type.
func (w WebhookEndpoint) Accepts(t AlertType) bool {
	if len(w.AlertTypes) == 0 {
		return true
	}
	for _, at := range w.AlertTypes {
		if at == t {
			return true
		}
	}
	return false
}
