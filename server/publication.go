/******************************************************************************
 *
 *  Description :
 *
 *    Reactive publications: a subscriber first receives a snapshot of a
 *    server-held collection as "added" records, then add/change/remove
 *    deltas from the change feed until it unsubscribes.
 *
 *****************************************************************************/

package main

import (
	"sort"
	"sync"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/store/types"
)

// PubRecord is one record of a published collection.
type PubRecord struct {
	ID   string
	Data interface{}
}

// PubCache is the process-owned mirror of an upstream collection: record id
// to latest known snapshot. Populated by a bulk fetch at start and kept
// current by change-feed events; eventually consistent with upstream. Safe
// for concurrent use; last write wins.
type PubCache struct {
	mu   sync.RWMutex
	recs map[string]PubRecord
}

func newPubCache() *PubCache {
	return &PubCache{recs: make(map[string]PubRecord)}
}

// Load replaces the cache content with the given records.
func (c *PubCache) Load(recs []PubRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = make(map[string]PubRecord, len(recs))
	for _, rec := range recs {
		c.recs[rec.ID] = rec
	}
}

// Set stores or replaces one record.
func (c *PubCache) Set(rec PubRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs[rec.ID] = rec
}

// Delete removes one record.
func (c *PubCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recs, id)
}

// Len returns the number of cached records.
func (c *PubCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recs)
}

// Range calls fn for every cached record in record id order.
func (c *PubCache) Range(fn func(rec PubRecord)) {
	c.mu.RLock()
	ids := make([]string, 0, len(c.recs))
	for id := range c.recs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	recs := make([]PubRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, c.recs[id])
	}
	c.mu.RUnlock()

	for _, rec := range recs {
		fn(rec)
	}
}

// PublicationHandler runs once per new subscriber. It must send the snapshot,
// register its change-feed listener, wire the listener's cancel into OnStop,
// and signal Ready.
type PublicationHandler func(pub *Publication)

// Publication is the per-subscriber context of one publication subscription.
type Publication struct {
	name  string
	msgID string
	req   auth.Request
	sess  *Session

	mu     sync.Mutex
	onStop []func()
	closed bool
	once   sync.Once
}

// Added sends an added-record message to the subscriber.
func (p *Publication) Added(collection, id string, rec interface{}) {
	p.send(collection, types.ChangeAdded, id, rec)
}

// Changed sends a changed-record message to the subscriber.
func (p *Publication) Changed(collection, id string, rec interface{}) {
	p.send(collection, types.ChangeChanged, id, rec)
}

// Removed sends a removed-record message to the subscriber.
func (p *Publication) Removed(collection, id string) {
	p.send(collection, types.ChangeRemoved, id, nil)
}

func (p *Publication) send(collection string, action types.ChangeAction, id string, rec interface{}) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sess.queueOut(&ServerComMessage{Pub: &MsgServerPub{
		Collection: collection,
		Action:     action.String(),
		Id:         id,
		Record:     rec,
	}})
}

// Ready tells the subscriber the snapshot is complete.
func (p *Publication) Ready() {
	p.sess.queueOut(NoErrParams(p.msgID, types.TimeNow(), map[string]interface{}{"ready": p.name}))
}

// OnStop registers a cleanup hook. A hook registered after the publication
// stopped runs immediately.
func (p *Publication) OnStop(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		fn()
		return
	}
	p.onStop = append(p.onStop, fn)
	p.mu.Unlock()
}

// Stop tears the publication down and runs cleanup hooks exactly once.
// Safe to call repeatedly and during abrupt connection loss.
func (p *Publication) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		hooks := p.onStop
		p.onStop = nil
		p.mu.Unlock()

		for _, fn := range hooks {
			fn()
		}
		statsInc("LivePublications", -1)
	})
}

// PubServer holds named publication handlers.
type PubServer struct {
	mu       sync.RWMutex
	handlers map[string]PublicationHandler
}

func newPubServer() *PubServer {
	statsRegisterInt("LivePublications")
	return &PubServer{handlers: make(map[string]PublicationHandler)}
}

// Publish registers a publication handler under a well-known name.
func (ps *PubServer) Publish(name string, handler PublicationHandler) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.handlers[name] = handler
}

// subscribe starts the named publication for one subscriber. The handler runs
// in its own goroutine: it may block on I/O without stalling the session.
func (ps *PubServer) subscribe(name, msgID string, req auth.Request, sess *Session) (*Publication, error) {
	ps.mu.RLock()
	handler := ps.handlers[name]
	ps.mu.RUnlock()

	if handler == nil {
		return nil, types.ErrNotFound
	}

	pub := &Publication{name: name, msgID: msgID, req: req, sess: sess}
	statsInc("LivePublications", 1)
	go handler(pub)

	return pub, nil
}
