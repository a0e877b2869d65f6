package main

import (
	"sync"
)

type Responses struct {
	messages []interface{}
}

func (s *Session) testWriteLoop(results *Responses, wg *sync.WaitGroup) {
	for msg := range s.send {
		results.messages = append(results.messages, msg)
	}
	wg.Done()
}

// directBroadcaster delivers synchronously into subscriber queues, no run
// loop in between. Keeps tests deterministic.
type directBroadcaster struct {
	reg *Registry
}

func (b *directBroadcaster) PublishLocal(em *Emission) {
	if ch := b.reg.Get(em.Channel); ch != nil {
		ch.deliver(em)
	}
}

func (b *directBroadcaster) PublishCluster(em *Emission) {
	b.PublishLocal(em)
}

// testRegistry builds a registry with synchronous delivery and without
// touching expvar, which panics on duplicate registration across tests.
func testRegistry() *Registry {
	r := &Registry{
		channels: &sync.Map{},
		local:    make(chan *Emission, 16),
		shutdown: make(chan chan<- bool),
	}
	r.broadcaster = &directBroadcaster{reg: r}
	return r
}

func testSession(sid, uid string) *Session {
	return &Session{
		sid:  sid,
		uid:  uid,
		send: make(chan interface{}, 32),
		subs: make(map[string]*Subscription),
		pubs: make(map[string]*Publication),
	}
}

// drain stops the subscription, waits for its delivery loop to finish and
// closes the session's send queue so testWriteLoop can return.
func drain(s *Session, subs ...*Subscription) {
	for _, sub := range subs {
		sub.Stop()
		<-sub.done
	}
	close(s.send)
}

func ctrlCodes(r *Responses) []int {
	var codes []int
	for _, msg := range r.messages {
		if m, ok := msg.(*ServerComMessage); ok && m.Ctrl != nil {
			codes = append(codes, m.Ctrl.Code)
		}
	}
	return codes
}

func eventMessages(r *Responses) []*MsgServerEvent {
	var events []*MsgServerEvent
	for _, msg := range r.messages {
		if m, ok := msg.(*ServerComMessage); ok && m.Event != nil {
			events = append(events, m.Event)
		}
	}
	return events
}
