/******************************************************************************
 *
 *  Description :
 *
 *    Channel registry: owns the set of named channels and runs the local
 *    delivery loop which routes emissions to their channels.
 *
 *****************************************************************************/

package main

import (
	"sync"

	"github.com/notifex/notifex/server/logs"
)

// Registry owns channels by name. One per process.
type Registry struct {
	// Channels indexed by name.
	channels *sync.Map

	// Local delivery queue, buffered: emissions wait here for routing to
	// their channel's subscribers.
	local chan *Emission

	// Request to shutdown, unbuffered.
	shutdown chan chan<- bool

	// Broadcaster handed to newly created channels.
	broadcaster Broadcaster
}

func newRegistry() *Registry {
	r := &Registry{
		channels: &sync.Map{},
		local:    make(chan *Emission, 4096),
		shutdown: make(chan chan<- bool),
	}
	// Channels publish through the registry's broadcaster; a standalone
	// server routes everything back to the local queue. Cluster setup
	// replaces this with a clusterBroadcaster before channels are created.
	r.broadcaster = &localBroadcaster{reg: r}

	statsRegisterInt("Channels")
	statsRegisterInt("LiveSubscriptions")
	statsRegisterInt("EmittedEventsTotal")
	statsRegisterInt("DeliveredEventsTotal")
	statsRegisterInt("LocalQueueOverflowsTotal")

	go r.run()

	return r
}

// NewChannel creates and registers a channel. Channels are created while the
// server is being configured; creating two channels with the same name is a
// programming error.
func (r *Registry) NewChannel(name string, opts *ChannelOpts) *Channel {
	if opts == nil {
		opts = &ChannelOpts{Retransmit: true}
	}

	ch := &Channel{
		name:        name,
		serverOnly:  opts.ServerOnly,
		retransmit:  opts.Retransmit,
		wildcard:    opts.Wildcard,
		readFor:     make(map[string]Rule),
		emitFor:     make(map[string]Rule),
		broadcaster: r.broadcaster,
		subs:        make(map[*Subscription]struct{}),
	}

	if _, loaded := r.channels.LoadOrStore(name, ch); loaded {
		logs.Err.Panicln("registry: duplicate channel", name)
	}

	statsInc("Channels", 1)
	return ch
}

// Get returns the named channel or nil.
func (r *Registry) Get(name string) *Channel {
	if ch, ok := r.channels.Load(name); ok {
		return ch.(*Channel)
	}
	return nil
}

func (r *Registry) run() {
	for {
		select {
		case em := <-r.local:
			if ch := r.Get(em.Channel); ch != nil {
				statsInc("EmittedEventsTotal", 1)
				ch.deliver(em)
			} else {
				// Replicated emission for a channel this instance never
				// configured. Dropped: delivery is best effort.
				logs.Warn.Println("registry: emission for unknown channel", em.Channel)
			}

		case done := <-r.shutdown:
			r.channels.Range(func(_, v interface{}) bool {
				ch := v.(*Channel)
				ch.mu.Lock()
				subs := make([]*Subscription, 0, len(ch.subs))
				for sub := range ch.subs {
					subs = append(subs, sub)
				}
				ch.mu.Unlock()
				for _, sub := range subs {
					sub.Stop()
				}
				return true
			})
			logs.Info.Println("registry: shutdown completed")
			done <- true
			return
		}
	}
}
