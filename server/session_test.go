package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/notifex/notifex/server/auth"
)

func verifyResponseCodes(r *Responses, codes []int, t *testing.T) {
	t.Helper()
	got := ctrlCodes(r)
	if len(got) != len(codes) {
		t.Fatalf("responses: expected %v, received %v.", codes, got)
	}
	for i := range codes {
		if got[i] != codes[i] {
			t.Errorf("response %d: expected code %d, got %d", i, codes[i], got[i])
		}
	}
}

func TestDispatchRawMalformed(t *testing.T) {
	s := testSession("sid1", "")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	s.dispatchRaw([]byte("this is not json"))

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusBadRequest}, t)
}

func TestSubscribeUnknownChannel(t *testing.T) {
	globals.registry = testRegistry()
	defer func() { globals.registry = nil }()

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	s.subscribe(&ClientComMessage{Sub: &MsgClientSub{Id: "1", Channel: "no-such", Event: "ev"}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusNotFound}, t)
}

func TestSubscribeUnsubscribeRoundtrip(t *testing.T) {
	globals.registry = testRegistry()
	defer func() { globals.registry = nil }()

	ch := globals.registry.NewChannel("open", nil)
	ch.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	s.subscribe(&ClientComMessage{Sub: &MsgClientSub{Id: "1", Channel: "open", Event: "ev"}})
	if s.getSub(subKey("open", "ev")) == nil {
		t.Fatal("subscription not recorded in the session")
	}
	if ch.subsCount() != 1 {
		t.Fatalf("expected 1 live sub, got %d", ch.subsCount())
	}

	s.unsubscribe(&ClientComMessage{Unsub: &MsgClientUnsub{Id: "2", Channel: "open", Event: "ev"}})
	if s.getSub(subKey("open", "ev")) != nil {
		t.Error("subscription still recorded after unsubscribe")
	}
	if ch.subsCount() != 0 {
		t.Errorf("expected 0 live subs, got %d", ch.subsCount())
	}

	// Unsubscribing again is a 404.
	s.unsubscribe(&ClientComMessage{Unsub: &MsgClientUnsub{Id: "3", Channel: "open", Event: "ev"}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusOK, http.StatusOK, http.StatusNotFound}, t)
}

func TestSubscribeDuringTeardownStops(t *testing.T) {
	globals.registry = testRegistry()
	defer func() { globals.registry = nil }()

	checking := make(chan struct{})
	release := make(chan struct{})
	ch := globals.registry.NewChannel("open", nil)
	ch.AllowRead(Dynamic(func(ctx context.Context, r auth.Request, eventName string, args []interface{}) (interface{}, error) {
		close(checking)
		<-release
		return true, nil
	}))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	done := make(chan struct{})
	go func() {
		s.subscribe(&ClientComMessage{Sub: &MsgClientSub{Id: "1", Channel: "open", Event: "ev"}})
		close(done)
	}()

	// The connection dies while the subscribe task is blocked in the access
	// check, then the task finishes.
	<-checking
	s.unsubAll()
	close(release)
	<-done

	if ch.subsCount() != 0 {
		t.Errorf("expected 0 live subs after teardown, got %d", ch.subsCount())
	}
	if len(s.subs) != 0 {
		t.Errorf("expected empty session sub map, got %d", len(s.subs))
	}

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusOK}, t)
}

func TestPublicationDuringTeardownStops(t *testing.T) {
	s := testSession("sid1", "uid1")

	s.unsubAll()

	stopped := 0
	pub := &Publication{name: "p", msgID: "m", sess: s}
	pub.OnStop(func() { stopped++ })
	if s.addPub("p", pub) {
		t.Fatal("addPub must refuse on a terminated session")
	}
	pub.Stop()

	if stopped != 1 {
		t.Errorf("expected the publication stopped once, got %d", stopped)
	}
	if len(s.pubs) != 0 {
		t.Errorf("expected empty session pub map, got %d", len(s.pubs))
	}
}

func TestSessionWriteDenied(t *testing.T) {
	globals.registry = testRegistry()
	defer func() { globals.registry = nil }()

	ch := globals.registry.NewChannel("sealed", nil)
	ch.AllowRead(Fixed(PolicyAll))
	ch.AllowWrite(Fixed(PolicyNone))

	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	s.write(&ClientComMessage{Write: &MsgClientWrite{
		Id: "1", Channel: "sealed", Event: "ev", Args: []interface{}{"x"}}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusForbidden}, t)
}

func TestMethodLogin(t *testing.T) {
	globals.identity = newStaticIdentity(map[string]string{"tok-1": "uid9"})
	defer func() { globals.identity = nil }()

	s := testSession("sid1", "")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	params, _ := json.Marshal(auth.LoginRequest{Resume: "tok-1"})
	s.method(&ClientComMessage{Method: &MsgClientMethod{Id: "1", Name: "login", Params: params}})

	if s.getUid() != "uid9" {
		t.Errorf("session uid: expected 'uid9', got '%s'", s.getUid())
	}

	// Wrong token is a 401 and does not rebind the session.
	params, _ = json.Marshal(auth.LoginRequest{Resume: "bogus"})
	s.method(&ClientComMessage{Method: &MsgClientMethod{Id: "2", Name: "login", Params: params}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusOK, http.StatusUnauthorized}, t)

	if s.getUid() != "uid9" {
		t.Errorf("failed login must not rebind the session, uid '%s'", s.getUid())
	}
}

func TestLoginConcurrentAuthorization(t *testing.T) {
	globals.identity = newStaticIdentity(map[string]string{"tok-1": "uid9"})
	defer func() { globals.identity = nil }()

	s := testSession("sid1", "")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	params, _ := json.Marshal(auth.LoginRequest{Resume: "tok-1"})

	// A login frame and access checks run in parallel, the way dispatch
	// spawns one goroutine per inbound frame. Meaningful under -race.
	var tasks sync.WaitGroup
	tasks.Add(2)
	go func() {
		defer tasks.Done()
		s.method(&ClientComMessage{Method: &MsgClientMethod{Id: "1", Name: "login", Params: params}})
	}()
	go func() {
		defer tasks.Done()
		for i := 0; i < 100; i++ {
			s.authReq("")
		}
	}()
	tasks.Wait()

	if s.getUid() != "uid9" {
		t.Errorf("session uid: expected 'uid9', got '%s'", s.getUid())
	}

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusOK}, t)
}

func TestMethodUnknown(t *testing.T) {
	s := testSession("sid1", "uid1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	s.method(&ClientComMessage{Method: &MsgClientMethod{Id: "1", Name: "no-such-method"}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusNotFound}, t)
}

func TestMethodPresenceRequiresLogin(t *testing.T) {
	globals.presence = newMemPresence(nil)
	defer func() { globals.presence = nil }()

	s := testSession("sid1", "")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	params, _ := json.Marshal([]string{"away"})
	s.method(&ClientComMessage{Method: &MsgClientMethod{Id: "1", Name: "setUserStatus", Params: params}})

	close(s.send)
	wg.Wait()
	verifyResponseCodes(&r, []int{http.StatusUnauthorized}, t)
}

func TestSessionUnsubAll(t *testing.T) {
	globals.registry = testRegistry()
	defer func() { globals.registry = nil }()

	chA := globals.registry.NewChannel("a", nil)
	chA.AllowRead(Fixed(PolicyAll))
	chB := globals.registry.NewChannel("b", nil)
	chB.AllowRead(Fixed(PolicyAll))

	s := testSession("sid1", "uid1")

	subA, err := chA.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}
	s.addSub(subKey("a", "ev"), subA)
	subB, err := chB.Subscribe(context.Background(), auth.Request{SubscriberID: "uid1"}, "ev", s)
	if err != nil {
		t.Fatal(err)
	}
	s.addSub(subKey("b", "ev"), subB)

	stopped := 0
	pub := &Publication{name: "p", msgID: "m", sess: s}
	pub.OnStop(func() { stopped++ })
	s.pubs["p"] = pub

	s.unsubAll()

	if chA.subsCount() != 0 || chB.subsCount() != 0 {
		t.Errorf("expected all channel subs stopped, got %d and %d", chA.subsCount(), chB.subsCount())
	}
	if stopped != 1 {
		t.Errorf("expected the publication stopped once, got %d", stopped)
	}
	if len(s.subs) != 0 || len(s.pubs) != 0 {
		t.Errorf("session maps not emptied: %d subs, %d pubs", len(s.subs), len(s.pubs))
	}
}
