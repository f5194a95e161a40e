package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type testMsg struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type capturePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (c *capturePublisher) PublishMsg(m *nats.Msg) error {
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	if got := carrier.Get("missing"); got != "" || carrier.Keys() != nil {
		t.Fatalf("expected empty carrier")
	}
	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestPublish_EncodesJSON(t *testing.T) {
	pub := &capturePublisher{}
	if err := Publish(context.Background(), pub, "sales.turns", testMsg{Name: "a", Value: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Subject != "sales.turns" {
		t.Fatalf("unexpected msgs: %+v", pub.msgs)
	}
	var got testMsg
	if err := json.Unmarshal(pub.msgs[0].Data, &got); err != nil || got.Value != 1 {
		t.Errorf("decoded %+v, %v", got, err)
	}
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	pub := &capturePublisher{}
	if err := Publish(ctx, pub, "s", testMsg{}); err != nil {
		t.Fatal(err)
	}
	if pub.msgs[0].Header.Get("traceparent") == "" {
		t.Error("expected traceparent header")
	}
}

func TestPublish_Errors(t *testing.T) {
	pub := &capturePublisher{err: errors.New("closed")}
	if err := Publish(context.Background(), pub, "s", testMsg{}); err == nil {
		t.Error("expected publisher error")
	}
	if err := Publish(context.Background(), &capturePublisher{}, "s", make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}
