package main

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/notifex/notifex/server/auth"
)

func TestSubscribeDenied(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("denied", nil)
	ch.AllowRead(Fixed(PolicyNone))

	s := testSession("sid1", "uid1")
	if _, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s); err != ErrAccessDenied {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
	if ch.subsCount() != 0 {
		t.Errorf("denied subscribe must not attach, %d live subs", ch.subsCount())
	}
}

func TestSubscribeLoggedOnly(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("logged", nil)
	ch.AllowRead(Fixed(PolicyLogged))

	s := testSession("sid1", "")
	if _, err := ch.Subscribe(context.Background(), auth.Request{SessionID: "sid1"}, "ev", s); err != ErrAccessDenied {
		t.Errorf("anonymous subscribe: expected ErrAccessDenied, got %v", err)
	}

	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1", SessionID: "sid1"}, "ev", s)
	if err != nil {
		t.Fatalf("authenticated subscribe failed: %v", err)
	}
	sub.Stop()
	<-sub.done
}

func TestWriteServerOnly(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("apps-test", &ChannelOpts{ServerOnly: true})
	ch.AllowWrite(Fixed(PolicyAll))

	err := ch.Write(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", nil)
	if err != ErrAccessDenied {
		t.Errorf("server-only channel must reject writes, got %v", err)
	}
}

func TestWriteReEmits(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("writable", nil)
	ch.AllowRead(Fixed(PolicyAll))
	ch.AllowWrite(Fixed(PolicyLogged))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}

	args := []interface{}{"hello"}
	if err := ch.Write(context.Background(), auth.Request{SubscriberID: "uid2"}, "ev", args); err != nil {
		t.Fatalf("permitted write failed: %v", err)
	}

	drain(s, sub)
	wg.Wait()

	events := eventMessages(&r)
	if len(events) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(events))
	}
	want := &MsgServerEvent{Channel: "writable", Event: "ev", Args: args}
	if !cmp.Equal(events[0], want) {
		t.Errorf("event mismatch: %s", cmp.Diff(want, events[0]))
	}
}

func TestWriteDenied(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("readonly", nil)
	ch.AllowRead(Fixed(PolicyAll))
	ch.AllowWrite(Fixed(PolicyNone))

	if err := ch.Write(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", nil); err != ErrAccessDenied {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestDeliveryFilterIsolation(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("events", nil)
	ch.AllowRead(Fixed(PolicyAll))

	ss := make([]*Session, 2)
	results := make([]*Responses, 2)
	subs := make([]*Subscription, 2)
	wg := sync.WaitGroup{}
	for i := range ss {
		ss[i] = testSession(fmt.Sprintf("sid%d", i), fmt.Sprintf("uid%d", i))
		results[i] = &Responses{}
		wg.Add(1)
		go ss[i].testWriteLoop(results[i], &wg)

		var err error
		subs[i], err = ch.Subscribe(context.Background(), auth.Request{SubscriberID: ss[i].uid}, fmt.Sprintf("ev%d", i), ss[i])
		if err != nil {
			t.Fatal(err)
		}
	}

	ch.Emit("ev0", "payload")

	for i := range ss {
		drain(ss[i], subs[i])
	}
	wg.Wait()

	if n := len(eventMessages(results[0])); n != 1 {
		t.Errorf("matching filter: expected 1 event, got %d", n)
	}
	if n := len(eventMessages(results[1])); n != 0 {
		t.Errorf("non-matching filter: expected 0 events, got %d", n)
	}
}

func TestDeliveryPerSubscriberGating(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("gated", nil)
	ch.AllowRead(Fixed(PolicyAll))
	// Only uid0 may receive.
	ch.AllowEmit(Dynamic(func(_ context.Context, req auth.Request, _ string, _ []interface{}) (interface{}, error) {
		return req.SubscriberID == "uid0", nil
	}))

	ss := make([]*Session, 2)
	results := make([]*Responses, 2)
	subs := make([]*Subscription, 2)
	wg := sync.WaitGroup{}
	for i := range ss {
		ss[i] = testSession(fmt.Sprintf("sid%d", i), fmt.Sprintf("uid%d", i))
		results[i] = &Responses{}
		wg.Add(1)
		go ss[i].testWriteLoop(results[i], &wg)

		var err error
		subs[i], err = ch.Subscribe(context.Background(), auth.Request{SubscriberID: ss[i].uid}, "ev", ss[i])
		if err != nil {
			t.Fatal(err)
		}
	}

	ch.Emit("ev", "secret")

	for i := range ss {
		drain(ss[i], subs[i])
	}
	wg.Wait()

	if n := len(eventMessages(results[0])); n != 1 {
		t.Errorf("permitted subscriber: expected 1 event, got %d", n)
	}
	if n := len(eventMessages(results[1])); n != 0 {
		t.Errorf("denied subscriber: expected 0 events, got %d", n)
	}
}

func TestDeliveryOrderPreserved(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("ordered", nil)
	ch.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}

	const total = 100
	for i := 0; i < total; i++ {
		ch.Emit("ev", i)
	}

	drain(s, sub)
	wg.Wait()

	events := eventMessages(&r)
	if len(events) != total {
		t.Fatalf("expected %d events, got %d", total, len(events))
	}
	for i, ev := range events {
		if got := ev.Args[0].(int); got != i {
			t.Fatalf("order violated at %d: got %d", i, got)
		}
	}
}

func TestWildcardFilter(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("wild", &ChannelOpts{Retransmit: true, Wildcard: "__all__"})
	ch.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "__all__", s)
	if err != nil {
		t.Fatal(err)
	}

	ch.Emit("room1", "a")
	ch.Emit("room2", "b")

	drain(s, sub)
	wg.Wait()

	if n := len(eventMessages(&r)); n != 2 {
		t.Errorf("wildcard filter: expected 2 events, got %d", n)
	}
}

func TestSubscriptionStopIdempotent(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("stoppable", nil)
	ch.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	sub.OnStop(func() { calls++ })

	sub.Stop()
	sub.Stop()
	<-sub.done

	if calls != 1 {
		t.Errorf("cleanup must run exactly once, ran %d times", calls)
	}
	if ch.subsCount() != 0 {
		t.Errorf("stopped subscription still attached, %d live subs", ch.subsCount())
	}

	// Hooks registered after the stop run immediately.
	late := 0
	sub.OnStop(func() { late++ })
	if late != 1 {
		t.Errorf("late hook must run immediately, ran %d times", late)
	}
}

func TestNoDeliveryAfterStop(t *testing.T) {
	reg := testRegistry()
	ch := reg.NewChannel("silent", nil)
	ch.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	sub, err := ch.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}

	sub.Stop()
	<-sub.done
	ch.Emit("ev", "late")

	close(s.send)
	wg.Wait()

	if n := len(eventMessages(&r)); n != 0 {
		t.Errorf("expected no events after stop, got %d", n)
	}
}
