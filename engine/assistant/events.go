package assistant

import (
	"context"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/natsutil"
)

// DefaultEventSubject is the NATS subject completed turns are published to.
const DefaultEventSubject = "sales.turns"

// TurnEvent describes one completed turn.
type TurnEvent struct {
	UserID    string             `json:"user_id"`
	TurnID    string             `json:"turn_id"`
	Intent    domain.Intent      `json:"intent"`
	Phase     conversation.Phase `json:"phase"`
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Response  string             `json:"response"`
	LatencyMS int64              `json:"latency_ms"`
	At        time.Time          `json:"at"`
}

// EventSink receives turn events. Publish failures never fail a turn.
type EventSink interface {
	Publish(ctx context.Context, ev TurnEvent) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, TurnEvent) error { return nil }

// NATSSink publishes turn events as JSON with trace context in headers.
type NATSSink struct {
	pub     natsutil.MsgPublisher
	subject string
}

// NewNATSSink returns a sink publishing to subject ("" uses DefaultEventSubject).
func NewNATSSink(pub natsutil.MsgPublisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultEventSubject
	}
	return &NATSSink{pub: pub, subject: subject}
}

func (s *NATSSink) Publish(ctx context.Context, ev TurnEvent) error {
	return natsutil.Publish(ctx, s.pub, s.subject, ev)
}
