/******************************************************************************
 *
 *  Description :
 *
 *    Broadcast layer: the split between single-instance delivery and
 *    cluster-wide replication of emissions.
 *
 *****************************************************************************/

package main

import (
	"github.com/notifex/notifex/server/logs"
)

// Emission is a single event addressed to the subscribers of a channel.
type Emission struct {
	// Name of the target channel.
	Channel string
	// Fully-qualified event name, may encode a composite key such as
	// "<roomId>/<subEvent>".
	Event string
	// Ordered payload values.
	Args []interface{}
}

// Broadcaster routes emissions either to local subscribers only or to every
// cooperating instance. Cluster replication is best-effort: a failure to
// reach a peer never blocks or fails local delivery.
type Broadcaster interface {
	// PublishLocal delivers the emission to subscribers of this instance only.
	PublishLocal(em *Emission)
	// PublishCluster replicates the emission to all peer instances, then
	// delivers it locally.
	PublishCluster(em *Emission)
}

// localBroadcaster delivers on this instance only. It is the broadcaster of
// a standalone server and the local half of the cluster broadcaster.
type localBroadcaster struct {
	reg *Registry
}

func (b *localBroadcaster) PublishLocal(em *Emission) {
	select {
	case b.reg.local <- em:
	default:
		logs.Err.Println("broadcast: local delivery queue full, dropping", em.Channel, em.Event)
		statsInc("LocalQueueOverflowsTotal", 1)
	}
}

// On a standalone server there are no peers: cluster-wide publish degrades
// to local delivery.
func (b *localBroadcaster) PublishCluster(em *Emission) {
	b.PublishLocal(em)
}

// clusterBroadcaster replicates emissions to peer nodes before delivering
// locally.
type clusterBroadcaster struct {
	local   *localBroadcaster
	cluster *Cluster
}

func (b *clusterBroadcaster) PublishLocal(em *Emission) {
	b.local.PublishLocal(em)
}

func (b *clusterBroadcaster) PublishCluster(em *Emission) {
	// Replication is async; at-most-once, no acknowledgment.
	b.cluster.replicate(em)
	b.local.PublishLocal(em)
}
