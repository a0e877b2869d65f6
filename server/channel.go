/******************************************************************************
 *
 *  Description :
 *
 *    Channel: a named pub/sub endpoint with its own authorization policy,
 *    a set of live subscriptions, and local/cluster emission entry points.
 *
 *****************************************************************************/

package main

import (
	"context"
	"sync"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
)

// Size of a subscription's pending event queue. Events are dropped, not
// reordered, when the subscriber cannot keep up.
const subEventQueueLen = 256

// ChannelOpts are creation-time channel options.
type ChannelOpts struct {
	// ServerOnly channels accept no client writes regardless of the write rule.
	ServerOnly bool
	// Retransmit false forces all emissions on this channel to stay on the
	// originating instance even when emitted cluster-wide.
	Retransmit bool
	// Wildcard is an event filter which matches every emission on the
	// channel, e.g. "__my_messages__". Empty disables wildcard matching.
	Wildcard string
}

// Channel is a named pub/sub endpoint. Access rules are set once while the
// server is being configured and are immutable afterwards.
type Channel struct {
	name string

	serverOnly bool
	retransmit bool
	wildcard   string

	readRule  Rule
	writeRule Rule
	emitRule  Rule
	// Per-filter overrides, keyed by the subscription's event filter.
	readFor map[string]Rule
	emitFor map[string]Rule

	broadcaster Broadcaster

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// AllowRead sets the subscribe-time rule.
func (ch *Channel) AllowRead(r Rule) {
	ch.readRule = r
}

// AllowReadFor sets a subscribe-time rule for one specific event filter.
func (ch *Channel) AllowReadFor(filter string, r Rule) {
	ch.readFor[filter] = r
}

// AllowWrite sets the client write rule.
func (ch *Channel) AllowWrite(r Rule) {
	ch.writeRule = r
}

// AllowEmit sets the delivery-time rule. When unset the read rule applies.
func (ch *Channel) AllowEmit(r Rule) {
	ch.emitRule = r
}

// AllowEmitFor sets a delivery-time rule for subscriptions with one specific
// event filter.
func (ch *Channel) AllowEmitFor(filter string, r Rule) {
	ch.emitFor[filter] = r
}

// Subscription attaches one connection to one channel under one event filter.
type Subscription struct {
	channel *Channel
	req     auth.Request
	filter  string
	sess    *Session

	// Pending emissions, consumed by deliverLoop. Per-subscriber delivery
	// order within the channel follows the queue order.
	events chan *Emission

	// Closed when deliverLoop has drained the queue and exited.
	done chan struct{}

	mu     sync.Mutex
	onStop []func()
	closed bool
	once   sync.Once
}

// Subscribe checks the read rule for the requested event filter and, if it
// passes, attaches the session to the channel. A predicate error rejects the
// subscription, it is not surfaced as a fault.
func (ch *Channel) Subscribe(ctx context.Context, req auth.Request, filter string, sess *Session) (*Subscription, error) {
	rule := ch.readRule
	if r, ok := ch.readFor[filter]; ok {
		rule = r
	}

	if !rule.check(ctx, req, filter, nil) {
		return nil, ErrAccessDenied
	}

	sub := &Subscription{
		channel: ch,
		req:     req,
		filter:  filter,
		sess:    sess,
		events:  make(chan *Emission, subEventQueueLen),
		done:    make(chan struct{}),
	}

	ch.mu.Lock()
	ch.subs[sub] = struct{}{}
	ch.mu.Unlock()

	go sub.deliverLoop()

	statsInc("LiveSubscriptions", 1)
	return sub, nil
}

// Write handles a client-originated write. A permitted write is re-emitted
// cluster-wide; the raw write itself is never passed through. Both a rule
// denial and a predicate error read as ErrAccessDenied.
func (ch *Channel) Write(ctx context.Context, req auth.Request, eventName string, args []interface{}) error {
	if ch.serverOnly {
		return ErrAccessDenied
	}

	if !ch.writeRule.check(ctx, req, eventName, args) {
		return ErrAccessDenied
	}

	ch.Emit(eventName, args...)
	return nil
}

// Emit publishes the event cluster-wide: every cooperating instance delivers
// it to its own subscribers. On channels with retransmit disabled the
// emission stays local.
func (ch *Channel) Emit(eventName string, args ...interface{}) {
	em := &Emission{Channel: ch.name, Event: eventName, Args: args}
	if !ch.retransmit {
		ch.broadcaster.PublishLocal(em)
		return
	}
	ch.broadcaster.PublishCluster(em)
}

// EmitLocal publishes the event to subscribers of this instance only. Used
// when the cluster has already processed the originating event elsewhere.
func (ch *Channel) EmitLocal(eventName string, args ...interface{}) {
	ch.broadcaster.PublishLocal(&Emission{Channel: ch.name, Event: eventName, Args: args})
}

// deliver fans the emission out to all matching subscriptions. Enqueue only;
// per-subscriber authorization runs in each subscription's own loop so a slow
// predicate delays that subscriber alone.
func (ch *Channel) deliver(em *Emission) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	for sub := range ch.subs {
		if !ch.matches(sub.filter, em.Event) {
			continue
		}
		select {
		case sub.events <- em:
		default:
			logs.Warn.Println("channel: subscriber queue full, dropping", ch.name, em.Event, sub.sess.sid)
		}
	}
}

// matches reports whether a subscription filter selects the event: exact
// match, or the channel's wildcard filter which selects everything.
func (ch *Channel) matches(filter, eventName string) bool {
	if filter == eventName {
		return true
	}
	return ch.wildcard != "" && filter == ch.wildcard
}

func (ch *Channel) removeSub(sub *Subscription) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.subs, sub)
}

// subsCount returns the number of live subscriptions. Test helper.
func (ch *Channel) subsCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.subs)
}

// deliverLoop evaluates the emit rule and pushes permitted events to the
// session, one at a time, preserving emission order for this subscriber.
func (s *Subscription) deliverLoop() {
	defer close(s.done)

	for em := range s.events {
		rule := s.channel.emitFor[s.filter]
		if !rule.isSet() {
			rule = s.channel.emitRule
		}
		if !rule.isSet() {
			rule = s.channel.readRule
		}

		ok, args := rule.checkEmit(context.Background(), s.req, em.Event, em.Args)
		if !ok {
			continue
		}

		s.sess.queueOut(&ServerComMessage{Event: &MsgServerEvent{
			Channel: s.channel.name,
			Event:   em.Event,
			Args:    args,
		}})
		statsInc("DeliveredEventsTotal", 1)
	}
}

// OnStop registers a cleanup hook to run when the subscription is stopped.
// A hook registered after the subscription stopped runs immediately.
func (s *Subscription) OnStop(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onStop = append(s.onStop, fn)
	s.mu.Unlock()
}

// Stop detaches the subscription from the channel and runs cleanup hooks.
// Safe to call more than once, including during abrupt connection loss; the
// cleanup runs exactly once.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.channel.removeSub(s)
		close(s.events)

		s.mu.Lock()
		s.closed = true
		hooks := s.onStop
		s.onStop = nil
		s.mu.Unlock()

		for _, fn := range hooks {
			fn()
		}
		statsInc("LiveSubscriptions", -1)
	})
}
