/******************************************************************************
 *
 *  Description :
 *
 *    Cluster of cooperating server instances. Every emission published
 *    cluster-wide is replicated to all peer nodes over RPC; each node then
 *    runs its own local delivery. Best effort, at-most-once.
 *
 *****************************************************************************/

package main

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"net"
	"net/rpc"
	"sort"
	"sync"
	"time"

	"github.com/notifex/notifex/server/logs"
)

const (
	// Default timeout before attempting to reconnect to a node.
	defaultClusterReconnect = 200 * time.Millisecond
)

type clusterNodeConfig struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

type clusterConfig struct {
	// List of all members of the cluster, including this member.
	Nodes []clusterNodeConfig `json:"nodes"`
	// Name of this cluster node.
	ThisName string `json:"self"`
}

// ClusterNode is a client's connection to another node.
type ClusterNode struct {
	lock sync.Mutex

	// RPC endpoint.
	endpoint *rpc.Client
	// True if the endpoint is believed to be connected.
	connected bool
	// True if a go routine is trying to reconnect the node.
	reconnecting bool
	// TCP address in the form host:port.
	address string
	// Name of the node.
	name string

	// Channel for shutting down the runner; buffered, 1.
	done chan bool
}

// ClusterEmission is an emission being replicated to a peer node.
type ClusterEmission struct {
	// Name of the node sending this request.
	Node string
	// The emission to deliver on the receiving node.
	Channel string
	Event   string
	Args    []interface{}
}

// Handle outbound node communication: attempt to connect, retry on a timer.
func (n *ClusterNode) reconnect() {
	var reconnTicker *time.Ticker

	// Avoid parallel reconnection threads.
	n.lock.Lock()
	if n.reconnecting {
		n.lock.Unlock()
		return
	}
	n.reconnecting = true
	n.lock.Unlock()

	count := 0
	var err error
	for {
		// Attempt to reconnect right away.
		if n.endpoint, err = rpc.Dial("tcp", n.address); err == nil {
			if reconnTicker != nil {
				reconnTicker.Stop()
			}
			n.lock.Lock()
			n.connected = true
			n.reconnecting = false
			n.lock.Unlock()
			statsInc("LiveClusterNodes", 1)
			logs.Info.Printf("cluster: connection to '%s' established", n.name)
			return
		} else if count == 0 {
			reconnTicker = time.NewTicker(defaultClusterReconnect)
		}

		count++

		select {
		case <-reconnTicker.C:
			// Wait for timer to try to reconnect again.
		case <-n.done:
			// Shutting down.
			reconnTicker.Stop()
			if n.endpoint != nil {
				n.endpoint.Close()
			}
			n.lock.Lock()
			n.connected = false
			n.reconnecting = false
			n.lock.Unlock()
			logs.Info.Printf("cluster: node '%s' shut down", n.name)
			return
		}
	}
}

func (n *ClusterNode) call(proc string, msg, resp interface{}) error {
	if !n.connected {
		return errors.New("cluster: node '" + n.name + "' not connected")
	}

	if err := n.endpoint.Call(proc, msg, resp); err != nil {
		logs.Warn.Printf("cluster: call failed to '%s' [%s]", n.name, err)

		n.lock.Lock()
		if n.connected {
			n.endpoint.Close()
			n.connected = false
			statsInc("LiveClusterNodes", -1)
			go n.reconnect()
		}
		n.lock.Unlock()
		return err
	}

	return nil
}

// emit forwards the emission to the peer.
func (n *ClusterNode) emit(em *ClusterEmission) error {
	var unused bool
	return n.call("Cluster.Emit", em, &unused)
}

// Cluster is the representation of the cluster.
type Cluster struct {
	// Cluster nodes with RPC endpoints (excluding current node).
	nodes map[string]*ClusterNode
	// Name of the local node.
	thisNodeName string

	// Resolved address to listen on.
	listenOn string

	// Socket for inbound connections.
	inbound *net.TCPListener
}

// Emit endpoint receives emissions replicated by peer nodes and hands them to
// local delivery. Called by a remote node.
func (c *Cluster) Emit(msg *ClusterEmission, unused *bool) error {
	if globals.cluster == nil {
		return errors.New("cluster: not initialized")
	}
	if _, known := c.nodes[msg.Node]; !known && msg.Node != c.thisNodeName {
		logs.Warn.Println("cluster: emission from an unknown node", msg.Node)
		return nil
	}

	// Local-only delivery: the originating node has done the cluster fan-out.
	globals.broadcaster.PublishLocal(&Emission{
		Channel: msg.Channel,
		Event:   msg.Event,
		Args:    msg.Args,
	})
	return nil
}

// replicate sends the emission to every peer node. Failures are logged and
// counted; they never delay the caller beyond enqueuing.
func (c *Cluster) replicate(em *Emission) {
	if c == nil {
		return
	}

	msg := &ClusterEmission{
		Node:    c.thisNodeName,
		Channel: em.Channel,
		Event:   em.Event,
		Args:    em.Args,
	}

	for _, n := range c.nodes {
		go func(n *ClusterNode) {
			if err := n.emit(msg); err != nil {
				statsInc("ClusterReplicationFailuresTotal", 1)
				logs.Warn.Printf("cluster: replication to '%s' failed: %s", n.name, err)
			}
		}(n)
	}
}

// clusterInit reads the cluster configuration and sets up the node table.
// Returns the worker id used to seed the session id generator: 1 for a
// standalone server, the node's 1-based rank in the sorted node list otherwise.
func clusterInit(configString json.RawMessage, self string) int {
	if globals.cluster != nil {
		logs.Err.Fatalln("Cluster already initialized.")
	}

	// Registering variables even for a standalone server so that monitoring
	// does not complain about missing vars.
	statsRegisterInt("TotalClusterNodes")
	statsRegisterInt("LiveClusterNodes")
	statsRegisterInt("ClusterReplicationFailuresTotal")

	// This is a standalone server, not initializing.
	if len(configString) == 0 {
		logs.Info.Println("Running as a standalone server.")
		return 1
	}

	var config clusterConfig
	if err := json.Unmarshal(configString, &config); err != nil {
		logs.Err.Fatalln(err)
	}

	thisName := self
	if thisName == "" {
		thisName = config.ThisName
	}

	// Name of the current node is not specified: clustering disabled.
	if thisName == "" {
		logs.Info.Println("Running as a standalone server.")
		return 1
	}

	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})

	globals.cluster = &Cluster{
		thisNodeName: thisName,
		nodes:        make(map[string]*ClusterNode),
	}

	var nodeNames []string
	for _, host := range config.Nodes {
		nodeNames = append(nodeNames, host.Name)

		if host.Name == thisName {
			globals.cluster.listenOn = host.Addr
			// Don't create a cluster member for this local instance.
			continue
		}

		globals.cluster.nodes[host.Name] = &ClusterNode{
			address: host.Addr,
			name:    host.Name,
			done:    make(chan bool, 1),
		}
	}

	if len(globals.cluster.nodes) == 0 {
		// Cluster needs at least two nodes.
		logs.Err.Fatalln("Invalid cluster size: 1")
	}

	sort.Strings(nodeNames)
	workerId := sort.SearchStrings(nodeNames, thisName) + 1

	statsSet("TotalClusterNodes", int64(len(globals.cluster.nodes)+1))

	return workerId
}

// Start accepting connections.
func (c *Cluster) start() {
	addr, err := net.ResolveTCPAddr("tcp", c.listenOn)
	if err != nil {
		logs.Err.Fatalln(err)
	}

	c.inbound, err = net.ListenTCP("tcp", addr)
	if err != nil {
		logs.Err.Fatalln(err)
	}

	for _, n := range c.nodes {
		go n.reconnect()
	}

	if err = rpc.Register(c); err != nil {
		logs.Err.Fatalln(err)
	}

	go rpc.Accept(c.inbound)

	logs.Info.Printf("Cluster of %d nodes initialized, node '%s' listening on [%s]",
		len(c.nodes)+1, c.thisNodeName, c.listenOn)
}

func (c *Cluster) shutdown() {
	if globals.cluster == nil {
		return
	}
	globals.cluster = nil

	c.inbound.Close()

	for _, n := range c.nodes {
		n.done <- true
	}

	logs.Info.Println("Cluster shut down")
}
