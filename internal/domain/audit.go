package domain

import (
	"context"
	"time"
)

// Audit event types emitted by the core.
const (
	AuditCodeIssued     = "code.issued"
	AuditCodeRedeemed   = "code.redeemed"
	AuditTokenIssued    = "token.issued"
	AuditRefreshRotated = "refresh.rotated"
	AuditGrantRejected  = "grant.rejected"
)

// AuditEvent is a structured record of a security-relevant transition.
type AuditEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ClientID  string    `json:"client_id,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	GrantType string    `json:"grant_type,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// AuditSink receives events best-effort. Emit must never block a
// request on the sink's availability and has no error to return.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}
