// Package natsutil provides typed NATS publish/subscribe/request helpers
// with OpenTelemetry trace propagation.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// DefaultRequestTimeout bounds Request when ctx has no deadline.
const DefaultRequestTimeout = 30 * time.Second

// MsgPublisher is the subset of *nats.Conn used for publishing.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

func encode(ctx context.Context, subject string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("natsutil: encode %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	return msg, nil
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc MsgPublisher, subject string, v T) error {
	msg, err := encode(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler that deserializes JSON messages of type T.
// Malformed messages are dropped and logged.
func Subscribe[T any](nc *nats.Conn, subject string, logger *slog.Logger, handler func(context.Context, T)) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			logger.Warn("dropping malformed message", "subject", msg.Subject, "err", err)
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
		handler(ctx, v)
	})
}

// Respond serves request/reply on subject within a queue group. The handler's
// response is JSON-encoded and sent to the reply inbox. Malformed requests get
// a JSON error body.
func Respond[Req, Resp any](nc *nats.Conn, subject, queue string, logger *slog.Logger, handler func(context.Context, Req) Resp) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Warn("malformed request", "subject", msg.Subject, "err", err)
			_ = msg.Respond([]byte(`{"error":"malformed request"}`))
			return
		}
		reply, err := encode(ctx, msg.Reply, handler(ctx, req))
		if err != nil {
			logger.Error("encode reply", "subject", msg.Subject, "err", err)
			return
		}
		if err := msg.RespondMsg(reply); err != nil {
			logger.Error("respond", "subject", msg.Subject, "err", err)
		}
	})
}

// Request sends a JSON-encoded request and decodes the response. It uses the
// ctx deadline, or DefaultRequestTimeout when ctx has none.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	msg, err := encode(ctx, subject, req)
	if err != nil {
		return zero, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}
	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, fmt.Errorf("natsutil: request %s: %w", subject, err)
	}
	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, fmt.Errorf("natsutil: decode %s: %w", subject, err)
	}
	return result, nil
}
