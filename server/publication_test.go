package main

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/store"
	"github.com/notifex/notifex/server/store/mock_store"
	"github.com/notifex/notifex/server/store/types"
)

func pubMessages(r *Responses) []*MsgServerPub {
	var pubs []*MsgServerPub
	for _, msg := range r.messages {
		if m, ok := msg.(*ServerComMessage); ok && m.Pub != nil {
			pubs = append(pubs, m.Pub)
		}
	}
	return pubs
}

func TestPubCacheRangeOrder(t *testing.T) {
	cache := newPubCache()
	cache.Set(PubRecord{ID: "id2", Data: "b"})
	cache.Set(PubRecord{ID: "id3", Data: "c"})
	cache.Set(PubRecord{ID: "id1", Data: "a"})

	var ids []string
	cache.Range(func(rec PubRecord) {
		ids = append(ids, rec.ID)
	})

	want := []string{"id1", "id2", "id3"}
	if !cmp.Equal(ids, want) {
		t.Errorf("enumeration order: %s", cmp.Diff(want, ids))
	}

	cache.Delete("id2")
	if cache.Len() != 2 {
		t.Errorf("expected 2 records after delete, got %d", cache.Len())
	}
}

func TestLoginServicesPublication(t *testing.T) {
	cache := newPubCache()
	cache.Load([]PubRecord{
		{ID: "id2", Data: "google"},
		{ID: "id1", Data: "github"},
	})
	feed := newFeed()

	s := testSession("sid1", "u1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	pub := &Publication{name: loginServicesPubName, msgID: "m1", sess: s}
	loginServicesHandler(cache, feed)(pub)

	// Deltas after the snapshot.
	feed.Post(loginServicesPubName, types.ChangeChanged, PubRecord{ID: "id1", Data: "github2"})
	feed.Post(loginServicesPubName, types.ChangeRemoved, PubRecord{ID: "id2"})

	// A stopped publication receives nothing further.
	pub.Stop()
	feed.Post(loginServicesPubName, types.ChangeChanged, PubRecord{ID: "id1", Data: "github3"})

	close(s.send)
	wg.Wait()

	pubs := pubMessages(&r)
	wantActions := []struct {
		action string
		id     string
	}{
		{"added", "id1"},
		{"added", "id2"},
		{"changed", "id1"},
		{"removed", "id2"},
	}
	if len(pubs) != len(wantActions) {
		t.Fatalf("expected %d pub messages, got %d", len(wantActions), len(pubs))
	}
	for i, want := range wantActions {
		if pubs[i].Action != want.action || pubs[i].Id != want.id {
			t.Errorf("message %d: expected %s/%s, got %s/%s",
				i, want.action, want.id, pubs[i].Action, pubs[i].Id)
		}
	}

	// Snapshot must be followed by a ready ctrl.
	codes := ctrlCodes(&r)
	if len(codes) != 1 || codes[0] != 200 {
		t.Errorf("expected a single 200 ready ctrl, got %v", codes)
	}

	// The cache tracked the deltas.
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached record, got %d", cache.Len())
	}
}

func TestAutoUpdatePublicationChangedOnly(t *testing.T) {
	cache := newPubCache()
	feed := newFeed()

	s := testSession("sid1", "u1")
	wg := sync.WaitGroup{}
	r := Responses{}
	wg.Add(1)
	go s.testWriteLoop(&r, &wg)

	pub := &Publication{name: autoUpdatePubName, msgID: "m1", sess: s}
	autoUpdateHandler(cache, feed)(pub)

	feed.Post(autoUpdatePubName, types.ChangeAdded, PubRecord{ID: "web", Data: "v1"})
	feed.Post(autoUpdatePubName, types.ChangeChanged, PubRecord{ID: "web", Data: "v2"})
	feed.Post(autoUpdatePubName, types.ChangeRemoved, PubRecord{ID: "web"})

	pub.Stop()
	close(s.send)
	wg.Wait()

	pubs := pubMessages(&r)
	if len(pubs) != 2 {
		t.Fatalf("expected 2 pub messages, got %d", len(pubs))
	}
	for i, p := range pubs {
		if p.Action != "changed" {
			t.Errorf("message %d: adds and changes must both read as changed, got %s", i, p.Action)
		}
	}
}

func TestPublicationStopIdempotent(t *testing.T) {
	s := testSession("sid1", "u1")
	pub := &Publication{name: "p", msgID: "m1", sess: s}

	calls := 0
	pub.OnStop(func() { calls++ })

	pub.Stop()
	pub.Stop()

	if calls != 1 {
		t.Errorf("cleanup must run exactly once, ran %d times", calls)
	}

	late := 0
	pub.OnStop(func() { late++ })
	if late != 1 {
		t.Errorf("late hook must run immediately, ran %d times", late)
	}
}

func TestPubServerUnknownPublication(t *testing.T) {
	ps := &PubServer{handlers: make(map[string]PublicationHandler)}
	s := testSession("sid1", "u1")

	if _, err := ps.subscribe("no-such", "m1", auth.Request{SubscriberID: "u1"}, s); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterBuiltinPublications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pubs := mock_store.NewMockPubsObjMapperInterface(ctrl)
	prev := store.Pubs
	store.Pubs = pubs
	defer func() { store.Pubs = prev }()

	pubs.EXPECT().LoginServices().Return([]types.LoginService{
		{ID: "ls1", Service: "github"},
	}, nil)
	pubs.EXPECT().ClientVersions().Return([]types.ClientVersion{
		{ID: "web", Version: "5"},
	}, nil)
	// No replica set in tests: the watch is unavailable and the feed runs
	// on posted events only.
	pubs.EXPECT().Watch(gomock.Any(), loginServicesCollection).Return(nil, types.ErrUnsupported)
	pubs.EXPECT().Watch(gomock.Any(), autoUpdateCollection).Return(nil, types.ErrUnsupported)

	ps := &PubServer{handlers: make(map[string]PublicationHandler)}
	feed := newFeed()
	if err := registerBuiltinPublications(context.Background(), ps, feed); err != nil {
		t.Fatal(err)
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, name := range []string{loginServicesPubName, autoUpdatePubName} {
		if ps.handlers[name] == nil {
			t.Errorf("publication '%s' not registered", name)
		}
	}
}
