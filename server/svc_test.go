package main

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/notifex/notifex/server/auth"
)

func TestPresenceUserStatusShape(t *testing.T) {
	reg := testRegistry()
	n := newNotifications(reg, false)
	n.StreamLogged.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := n.StreamLogged.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "user-status", s)
	if err != nil {
		t.Fatal(err)
	}

	p := newMemPresence(n)
	if err := p.NewConnection(context.Background(), "uid2", "sid2"); err != nil {
		t.Fatal(err)
	}

	drain(s, sub)
	wg.Wait()

	events := eventMessages(&r)
	if len(events) != 1 {
		t.Fatalf("expected 1 user-status event, got %d", len(events))
	}
	// One array argument [uid, status], not wrapped any deeper.
	want := []interface{}{[]interface{}{"uid2", "online"}}
	if !cmp.Equal(want, events[0].Args) {
		t.Errorf("user-status args mismatch: %s", cmp.Diff(want, events[0].Args))
	}
}

func TestPresenceBroadcastsOnFirstAndLastConnection(t *testing.T) {
	reg := testRegistry()
	n := newNotifications(reg, false)
	n.StreamLogged.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := n.StreamLogged.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "user-status", s)
	if err != nil {
		t.Fatal(err)
	}

	p := newMemPresence(n)
	// Second connection of the same user is silent; only the last removal
	// reports offline.
	p.NewConnection(context.Background(), "uid2", "sid2")
	p.NewConnection(context.Background(), "uid2", "sid3")
	p.RemoveConnection(context.Background(), "uid2", "sid2")
	p.RemoveConnection(context.Background(), "uid2", "sid3")

	drain(s, sub)
	wg.Wait()

	events := eventMessages(&r)
	if len(events) != 2 {
		t.Fatalf("expected 2 user-status events, got %d", len(events))
	}
	for i, status := range []string{"online", "offline"} {
		want := []interface{}{[]interface{}{"uid2", status}}
		if !cmp.Equal(want, events[i].Args) {
			t.Errorf("event %d args mismatch: %s", i, cmp.Diff(want, events[i].Args))
		}
	}
}
