//go:build integration

package natsutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}

func TestNATS_PubSub(t *testing.T) {
	nc := connectNATS(t)
	ch := make(chan testMsg, 1)
	sub, err := Subscribe(nc, "integ.pubsub", nil, func(_ context.Context, m testMsg) { ch <- m })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "integ.pubsub", testMsg{Name: "hola"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-ch:
		if m.Name != "hola" {
			t.Errorf("got %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNATS_RequestRespond(t *testing.T) {
	nc := connectNATS(t)
	sub, err := Respond(nc, "integ.rr", "workers", nil, func(_ context.Context, m testMsg) testMsg {
		return testMsg{Name: m.Name + "!", Value: m.Value * 2}
	})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := Request[testMsg, testMsg](ctx, nc, "integ.rr", testMsg{Name: "a", Value: 21})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got.Name != "a!" || got.Value != 42 {
		t.Errorf("got %+v", got)
	}
}
