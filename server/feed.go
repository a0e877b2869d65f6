/******************************************************************************
 *
 *  Description :
 *
 *    Change feed: fan-in point for upstream collection mutations, fanned out
 *    to the listeners registered by reactive publications.
 *
 *****************************************************************************/

package main

import (
	"context"
	"sync"

	"github.com/notifex/notifex/server/logs"
	"github.com/notifex/notifex/server/store"
	"github.com/notifex/notifex/server/store/types"
)

// FeedListener receives one collection mutation.
type FeedListener func(action types.ChangeAction, rec PubRecord)

// Feed distributes named change streams to registered listeners. Listeners
// are owned by subscriptions; the cancel function returned by Listen is wired
// into the subscription's stop hook so no listener outlives its owner.
type Feed struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]FeedListener
}

func newFeed() *Feed {
	return &Feed{listeners: make(map[string]map[int]FeedListener)}
}

// Listen registers a listener on the named feed. The returned cancel function
// detaches it; calling cancel more than once is harmless.
func (f *Feed) Listen(name string, fn FeedListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	if f.listeners[name] == nil {
		f.listeners[name] = make(map[int]FeedListener)
	}
	f.listeners[name][id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners[name], id)
	}
}

// Post delivers one mutation to all listeners of the named feed.
func (f *Feed) Post(name string, action types.ChangeAction, rec PubRecord) {
	f.mu.Lock()
	fns := make([]FeedListener, 0, len(f.listeners[name]))
	for _, fn := range f.listeners[name] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(action, rec)
	}
}

// watchCollection bridges a store change stream into the named feed. Runs
// until the context is cancelled or the stream closes.
func (f *Feed) watchCollection(ctx context.Context, collection, feedName string) {
	events, err := store.Pubs.Watch(ctx, collection)
	if err != nil {
		// The store cannot watch (e.g. no replica set). The feed then only
		// carries mutations posted by other instances or tests.
		logs.Warn.Println("feed: watch unavailable for", collection, "-", err)
		return
	}

	go func() {
		for ev := range events {
			f.Post(feedName, ev.Action, PubRecord{ID: ev.ID, Data: ev.Record})
		}
		logs.Info.Println("feed: watch closed for", collection)
	}()
}
