package audit

import (
	"context"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ZapSink emits audit events as structured log records. Emission is
// synchronous but cannot fail a request; the sink swallows nothing and
// returns nothing.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink writing to the given logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("audit")}
}

func (s *ZapSink) Emit(ctx context.Context, event domain.AuditEvent) {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Time("at", event.At),
	}
	if event.ClientID != "" {
		fields = append(fields, zap.String("client_id", event.ClientID))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.GrantType != "" {
		fields = append(fields, zap.String("grant_type", event.GrantType))
	}
	if len(event.Scopes) > 0 {
		fields = append(fields, zap.Strings("scopes", event.Scopes))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}

	s.logger.Info("audit", fields...)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(ctx context.Context, event domain.AuditEvent) {}
