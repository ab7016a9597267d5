package kafka

import (
	"context"
	"testing"
	"time"

	applogger "AquaWatch/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(testLogger(t)); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestStopWaitsForForwardersBeforeClosingChannel(t *testing.T) {
	c, err := NewConsumer(testLogger(t),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerBufferSize(1),
	)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}

	// A forwarder that keeps sending until told to stop. It blocks on the
	// full buffer; Stop must unblock it via stopChan before closing msgChan.
	c.readerWg.Add(1)
	go func() {
		defer c.readerWg.Done()
		for c.forward(&message{topic: "t", data: []byte("x")}) {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestBackoffWithJitterBounded(t *testing.T) {
	min, max := 50*time.Millisecond, 2*time.Second
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v outside (0, %v]", attempt, d, max)
		}
	}
}
