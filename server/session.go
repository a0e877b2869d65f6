/******************************************************************************
 *
 *  Description :
 *
 *  Handling of client sessions. A session is a persistent connection (only
 *  websocket at the moment) through which a client subscribes to channels
 *  and publications, writes events and calls methods.
 *
 *****************************************************************************/

package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
	"github.com/notifex/notifex/server/store/types"
)

// Wire transport.
const (
	// NONE is undefined/not set.
	NONE = iota
	// WEBSOCK represents websocket connection.
	WEBSOCK
)

// Session is a connection to a client. It subscribes to channels and
// publications on the client's behalf and receives events addressed to them.
type Session struct {
	// protocol - NONE (unset), WEBSOCK
	proto int

	// Websocket. Set only for websocket sessions.
	ws *websocket.Conn

	// IP address of the client.
	remoteAddr string

	// User agent, a string provided by the client.
	userAgent string

	// ID of the subscriber attached to this session, empty if not logged in.
	// Written by login, read by every handler goroutine, hence the lock.
	uid     string
	uidLock sync.RWMutex

	// Session ID.
	sid string

	// Time when the session received any packet from the client.
	lastAction time.Time

	// Outbound messages, buffered.
	// The content is serialized by the writer goroutine.
	send chan interface{}

	// Channel for shutting down the session, buffer 1.
	stop chan interface{}

	// Live channel subscriptions, indexed by channel name + "/" + event filter.
	subs     map[string]*Subscription
	subsLock sync.RWMutex

	// Live publications, indexed by publication name.
	pubs map[string]*Publication

	// Set once by unsubAll, under subsLock. Once set, no new subscriptions or
	// publications may be recorded: an in-flight subscribe task that finishes
	// after teardown must stop whatever it attached.
	terminating bool
}

func (s *Session) getUid() string {
	s.uidLock.RLock()
	defer s.uidLock.RUnlock()

	return s.uid
}

func (s *Session) setUid(uid string) {
	s.uidLock.Lock()
	s.uid = uid
	s.uidLock.Unlock()
}

// Subscription key in Session.subs.
func subKey(channel, filter string) string {
	return channel + "/" + filter
}

func (s *Session) addSub(key string, sub *Subscription) bool {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	if s.terminating {
		return false
	}
	if _, ok := s.subs[key]; ok {
		return false
	}
	s.subs[key] = sub
	return true
}

// addPub records a live publication. Returns false on a duplicate name or
// when the session is terminating; the caller must stop the publication then.
func (s *Session) addPub(name string, pub *Publication) bool {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	if s.terminating {
		return false
	}
	if _, ok := s.pubs[name]; ok {
		return false
	}
	s.pubs[name] = pub
	return true
}

func (s *Session) getSub(key string) *Subscription {
	s.subsLock.RLock()
	defer s.subsLock.RUnlock()

	return s.subs[key]
}

func (s *Session) delSub(key string) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	delete(s.subs, key)
}

// unsubAll stops all channel subscriptions and publications of the session.
func (s *Session) unsubAll() {
	s.subsLock.Lock()
	s.terminating = true
	subs := make([]*Subscription, 0, len(s.subs))
	for key, sub := range s.subs {
		subs = append(subs, sub)
		delete(s.subs, key)
	}
	pubs := make([]*Publication, 0, len(s.pubs))
	for name, pub := range s.pubs {
		pubs = append(pubs, pub)
		delete(s.pubs, name)
	}
	s.subsLock.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}
	for _, pub := range pubs {
		pub.Stop()
	}
}

// queueOut attempts to send a ServerComMessage to a session; if the send buffer is full,
// timeout is 50 microseconds.
func (s *Session) queueOut(msg *ServerComMessage) bool {
	if s == nil {
		return true
	}

	select {
	case s.send <- msg:
	case <-time.After(time.Microsecond * 50):
		logs.Err.Println("s.queueOut: timeout", s.sid)
		return false
	}
	return true
}

// authReq builds an access request from the session state and an optional
// per-message resume token.
func (s *Session) authReq(token string) auth.Request {
	req := auth.Request{SubscriberID: s.getUid(), SessionID: s.sid}
	if token != "" {
		req.Extra = map[string]string{"token": token}
	}
	return req
}

// cleanUp is called when the session is terminated to remove the session from
// the store and stop all its subscriptions.
func (s *Session) cleanUp() {
	globals.sessionStore.Delete(s)
	s.unsubAll()
	if uid := s.getUid(); uid != "" && globals.presence != nil {
		if err := globals.presence.RemoveConnection(context.Background(), uid, s.sid); err != nil {
			logs.Warn.Println("session: presence remove:", err, s.sid)
		}
	}
}

// Message received, convert bytes to ClientComMessage and dispatch.
func (s *Session) dispatchRaw(raw []byte) {
	var msg ClientComMessage

	if err := json.Unmarshal(raw, &msg); err != nil {
		// Malformed message
		logs.Warn.Println("s.dispatch", err, s.sid)
		s.queueOut(ErrMalformed("", types.TimeNow()))
		return
	}

	s.dispatch(&msg)
}

func (s *Session) dispatch(msg *ClientComMessage) {
	s.lastAction = types.TimeNow()
	msg.timestamp = s.lastAction

	switch {
	case msg.Sub != nil:
		// Each inbound operation is handled as an independent task: access
		// predicates may block on I/O and must not stall the read loop.
		go s.subscribe(msg)

	case msg.Unsub != nil:
		go s.unsubscribe(msg)

	case msg.Write != nil:
		go s.write(msg)

	case msg.Method != nil:
		go s.method(msg)

	default:
		// Unknown message
		s.queueOut(ErrMalformed("", msg.timestamp))
		logs.Warn.Println("s.dispatch: unknown message", s.sid)
	}
}

// subscribe handles {sub} requests: attach to a channel event or start a
// publication.
func (s *Session) subscribe(msg *ClientComMessage) {
	if msg.Sub.Publication != "" {
		s.startPublication(msg)
		return
	}

	if msg.Sub.Channel == "" || msg.Sub.Event == "" {
		s.queueOut(ErrMalformed(msg.Sub.Id, msg.timestamp))
		return
	}

	ch := globals.registry.Get(msg.Sub.Channel)
	if ch == nil {
		s.queueOut(ErrNotFound(msg.Sub.Id, msg.timestamp))
		return
	}

	key := subKey(msg.Sub.Channel, msg.Sub.Event)
	if s.getSub(key) != nil {
		// Already subscribed, not an error.
		s.queueOut(NoErr(msg.Sub.Id, msg.timestamp))
		return
	}

	sub, err := ch.Subscribe(context.Background(), s.authReq(msg.Sub.Token), msg.Sub.Event, s)
	if err != nil {
		s.queueOut(ErrPermissionDenied(msg.Sub.Id, msg.timestamp))
		return
	}

	if !s.addSub(key, sub) {
		// Lost the race to a concurrent subscribe for the same key, or the
		// session was torn down while the access check ran.
		sub.Stop()
		s.queueOut(NoErr(msg.Sub.Id, msg.timestamp))
		return
	}

	sub.OnStop(func() { s.delSub(key) })

	s.queueOut(NoErr(msg.Sub.Id, msg.timestamp))
}

// startPublication handles {sub pub="..."} requests.
func (s *Session) startPublication(msg *ClientComMessage) {
	name := msg.Sub.Publication

	s.subsLock.Lock()
	_, dup := s.pubs[name]
	s.subsLock.Unlock()
	if dup {
		s.queueOut(NoErr(msg.Sub.Id, msg.timestamp))
		return
	}

	pub, err := globals.pubs.subscribe(name, msg.Sub.Id, s.authReq(msg.Sub.Token), s)
	if err != nil {
		s.queueOut(ErrNotFound(msg.Sub.Id, msg.timestamp))
		return
	}

	if !s.addPub(name, pub) {
		pub.Stop()
		s.queueOut(NoErr(msg.Sub.Id, msg.timestamp))
		return
	}

	pub.OnStop(func() {
		s.subsLock.Lock()
		delete(s.pubs, name)
		s.subsLock.Unlock()
	})
}

// unsubscribe handles {unsub} requests for both channels and publications.
func (s *Session) unsubscribe(msg *ClientComMessage) {
	if msg.Unsub.Publication != "" {
		s.subsLock.Lock()
		pub := s.pubs[msg.Unsub.Publication]
		s.subsLock.Unlock()

		if pub == nil {
			s.queueOut(ErrNotFound(msg.Unsub.Id, msg.timestamp))
			return
		}
		pub.Stop()
		s.queueOut(NoErr(msg.Unsub.Id, msg.timestamp))
		return
	}

	key := subKey(msg.Unsub.Channel, msg.Unsub.Event)
	sub := s.getSub(key)
	if sub == nil {
		s.queueOut(ErrNotFound(msg.Unsub.Id, msg.timestamp))
		return
	}

	sub.Stop()
	s.queueOut(NoErr(msg.Unsub.Id, msg.timestamp))
}

// write handles {write} requests: client-originated event emission.
func (s *Session) write(msg *ClientComMessage) {
	if msg.Write.Channel == "" || msg.Write.Event == "" {
		s.queueOut(ErrMalformed(msg.Write.Id, msg.timestamp))
		return
	}

	ch := globals.registry.Get(msg.Write.Channel)
	if ch == nil {
		s.queueOut(ErrNotFound(msg.Write.Id, msg.timestamp))
		return
	}

	if err := ch.Write(context.Background(), s.authReq(msg.Write.Token), msg.Write.Event, msg.Write.Args); err != nil {
		s.queueOut(ErrPermissionDenied(msg.Write.Id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.Write.Id, msg.timestamp))
}
