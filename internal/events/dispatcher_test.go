package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, e Event) error {
		got = append(got, "deleted")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(got) != 2 || got[0] != "first:t1" || got[1] != "second:t1" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	called := false
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error { return boom })
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventCommentAdded})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if !called {
		t.Fatal("second handler was skipped")
	}
}

func TestActorFromContext(t *testing.T) {
	if ActorFromContext(context.Background()) != nil {
		t.Fatal("expected no actor")
	}
	ctx := WithActor(context.Background(), "u1")
	actor := ActorFromContext(ctx)
	if actor == nil || *actor != "u1" {
		t.Fatalf("actor = %v, want u1", actor)
	}
	if ActorFromContext(WithActor(context.Background(), "")) != nil {
		t.Fatal("empty actor id should be treated as absent")
	}
}
