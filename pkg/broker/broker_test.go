// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package broker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTopicFanOut(t *testing.T) {
	topic := NewTopic("test", nil)
	q1 := NewQueue(QueueConfig{Name: "q1"})
	q2 := NewQueue(QueueConfig{Name: "q2"})
	topic.Subscribe(q1)
	topic.Subscribe(q2)

	topic.Publish(context.Background(), []byte("payload"))

	if q1.Len() != 1 || q2.Len() != 1 {
		t.Fatalf("queue lengths = %d/%d, want a copy on each", q1.Len(), q2.Len())
	}
}

func TestTopicSubscriberIsolation(t *testing.T) {
	topic := NewTopic("test", nil)
	topic.Subscribe(SubscriberFunc("broken", func(ctx context.Context, body []byte) error {
		return errors.New("boom")
	}))
	q := NewQueue(QueueConfig{Name: "healthy"})
	topic.Subscribe(q)

	topic.Publish(context.Background(), []byte("payload"))

	if q.Len() != 1 {
		t.Fatal("a failing subscriber blocked delivery to the others")
	}
}

func TestTopicDeliversIndependentCopies(t *testing.T) {
	topic := NewTopic("test", nil)
	var first, second []byte
	topic.Subscribe(SubscriberFunc("a", func(ctx context.Context, body []byte) error {
		first = body
		return nil
	}))
	topic.Subscribe(SubscriberFunc("b", func(ctx context.Context, body []byte) error {
		second = body
		return nil
	}))

	topic.Publish(context.Background(), []byte("payload"))

	first[0] = 'X'
	if string(second) != "payload" {
		t.Fatal("subscribers shared a payload buffer")
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(QueueConfig{Name: "tiny", Buffer: 1})
	ctx := context.Background()

	if err := q.Deliver(ctx, []byte("one")); err != nil {
		t.Fatalf("Deliver() returned error: %v", err)
	}
	if err := q.Deliver(ctx, []byte("two")); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Deliver() error = %v, want ErrQueueFull", err)
	}
}

func TestConsumerBatchBySize(t *testing.T) {
	q := NewQueue(QueueConfig{Name: "batch"})
	batches := make(chan []Message, 10)
	c := NewConsumer(q, func(ctx context.Context, batch []Message) []error {
		batches <- batch
		return nil
	}, ConsumerConfig{BatchSize: 5, BatchWindow: time.Second})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := q.Deliver(ctx, []byte("msg")); err != nil {
			t.Fatalf("Deliver() returned error: %v", err)
		}
	}

	c.Start()
	defer c.Stop()

	select {
	case batch := <-batches:
		if len(batch) != 5 {
			t.Fatalf("batch length = %d, want 5", len(batch))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no batch dispatched on size threshold")
	}
}

func TestConsumerBatchByWindow(t *testing.T) {
	q := NewQueue(QueueConfig{Name: "window"})
	batches := make(chan []Message, 10)
	c := NewConsumer(q, func(ctx context.Context, batch []Message) []error {
		batches <- batch
		return nil
	}, ConsumerConfig{BatchSize: 5, BatchWindow: 30 * time.Millisecond})

	if err := q.Deliver(context.Background(), []byte("lonely")); err != nil {
		t.Fatalf("Deliver() returned error: %v", err)
	}

	c.Start()
	defer c.Stop()

	select {
	case batch := <-batches:
		if len(batch) != 1 {
			t.Fatalf("batch length = %d, want 1", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("no batch dispatched on window threshold")
	}
}

func TestDeadLetterAfterOneAttempt(t *testing.T) {
	dlq := NewQueue(QueueConfig{Name: "dlq"})
	q := NewQueue(QueueConfig{Name: "primary", DeadLetter: dlq})

	attempts := 0
	c := NewConsumer(q, func(ctx context.Context, batch []Message) []error {
		attempts++
		return []error{errors.New("permanent failure")}
	}, ConsumerConfig{BatchWindow: 10 * time.Millisecond})

	if err := q.Deliver(context.Background(), []byte("bad")); err != nil {
		t.Fatalf("Deliver() returned error: %v", err)
	}

	c.Start()
	defer c.Stop()

	waitFor(t, time.Second, func() bool { return dlq.Len() == 1 })
	if attempts != 1 {
		t.Fatalf("attempts = %d, want exactly 1 before dead-lettering", attempts)
	}
}

func TestRedeliveryWithinBudget(t *testing.T) {
	dlq := NewQueue(QueueConfig{Name: "dlq"})
	q := NewQueue(QueueConfig{Name: "primary", MaxReceiveCount: 2, DeadLetter: dlq})

	calls := make(chan int, 10)
	attempt := 0
	c := NewConsumer(q, func(ctx context.Context, batch []Message) []error {
		attempt++
		calls <- attempt
		if attempt == 1 {
			return []error{errors.New("transient failure")}
		}
		return nil
	}, ConsumerConfig{BatchWindow: 10 * time.Millisecond})

	if err := q.Deliver(context.Background(), []byte("flaky")); err != nil {
		t.Fatalf("Deliver() returned error: %v", err)
	}

	c.Start()
	defer c.Stop()

	waitFor(t, time.Second, func() bool {
		select {
		case n := <-calls:
			return n == 2
		default:
			return false
		}
	})
	if dlq.Len() != 0 {
		t.Fatal("message dead-lettered despite remaining attempt budget")
	}
}

func TestReceiveCountIncrements(t *testing.T) {
	q := NewQueue(QueueConfig{Name: "counts", MaxReceiveCount: 3})

	counts := make(chan int, 10)
	c := NewConsumer(q, func(ctx context.Context, batch []Message) []error {
		counts <- batch[0].ReceiveCount
		if batch[0].ReceiveCount < 2 {
			return []error{errors.New("again")}
		}
		return nil
	}, ConsumerConfig{BatchWindow: 10 * time.Millisecond})

	if err := q.Deliver(context.Background(), []byte("m")); err != nil {
		t.Fatalf("Deliver() returned error: %v", err)
	}

	c.Start()
	defer c.Stop()

	first := <-counts
	second := <-counts
	if first != 1 || second != 2 {
		t.Fatalf("receive counts = %d, %d; want 1, 2", first, second)
	}
}
