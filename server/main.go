/******************************************************************************
 *
 *  Description :
 *
 *  Setup & initialization of the notification bus server.
 *
 *****************************************************************************/

package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"runtime"

	"github.com/tinode/jsonco"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
	"github.com/notifex/notifex/server/store"

	// Database adapters are registered at import.
	_ "github.com/notifex/notifex/server/db/mongodb"
)

// currentVersion is the reported API version.
const currentVersion = "0.1"

var globals struct {
	// Channel registry, one per process.
	registry *Registry

	// Live sessions.
	sessionStore *SessionStore

	// Cluster, nil for a standalone server.
	cluster *Cluster

	// Broadcaster used for emissions which are not bound to a channel yet,
	// most notably those arriving from cluster peers.
	broadcaster Broadcaster

	// Typed emission facade over the registry.
	notifications *Notifications

	// Reactive publications.
	pubs *PubServer

	// Change feed bridging store watchers to publications.
	feed *Feed

	// Collaborator services.
	identity auth.Identity
	presence auth.Presence
	oracle   auth.Oracle

	// Buffered channel of stats updates.
	statsUpdate chan *varUpdate
}

type configType struct {
	// HTTP(S) address:port to listen on.
	Listen string `json:"listen"`

	// URL path for exposing runtime stats, "-" to disable.
	ExpvarPath string `json:"expvar"`

	// URL path of the websocket endpoint.
	WSPath string `json:"ws_path"`

	// Log emissions passing through the facade.
	Debug bool `json:"debug"`

	// Subscriber ids granted all permissions by the built-in oracle.
	AdminUsers []string `json:"admin_users"`

	// Resume token table of the built-in identity service.
	ResumeTokens map[string]string `json:"resume_tokens"`

	// Configuration of the database adapter.
	Store json.RawMessage `json:"store_config"`

	// Configuration of the cluster.
	Cluster json.RawMessage `json:"cluster_config"`
}

func main() {
	logs.Init()

	logs.Info.Printf("Server v%s pid=%d started with processes: %d", currentVersion,
		os.Getpid(), runtime.GOMAXPROCS(runtime.NumCPU()))

	var configfile = flag.String("config", "./notifex.conf", "Path to config file.")
	var listenOn = flag.String("listen", "", "Override address and port to listen on.")
	var clusterSelf = flag.String("cluster_self", "", "Override the name of the current cluster node.")
	flag.Parse()

	logs.Info.Printf("Using config from '%s'", *configfile)

	var config configType
	if file, err := os.Open(*configfile); err != nil {
		logs.Err.Fatalln("Failed to read config file:", err)
	} else {
		jr := jsonco.New(file)
		if err = json.NewDecoder(jr).Decode(&config); err != nil {
			switch jerr := err.(type) {
			case *json.UnmarshalTypeError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Unmarshall error in config file in %s at %d:%d (offset %d bytes): %s",
					jerr.Field, lnum, cnum, jerr.Offset, jerr.Error())
			case *json.SyntaxError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Syntax error in config file at %d:%d (offset %d bytes): %s",
					lnum, cnum, jerr.Offset, jerr.Error())
			default:
				logs.Err.Fatalln("Failed to parse config file:", err)
			}
		}
		file.Close()
	}

	if *listenOn != "" {
		config.Listen = *listenOn
	}
	if config.Listen == "" {
		config.Listen = ":6060"
	}
	if config.WSPath == "" {
		config.WSPath = "/v0/stream"
	}

	mux := http.NewServeMux()
	statsInit(mux, config.ExpvarPath)
	statsRegisterInt("LiveSessions")
	statsRegisterInt("TotalSessions")
	statsRegisterInt("IncomingMessagesWebsockTotal")
	statsRegisterInt("OutgoingMessagesWebsockTotal")

	// Cluster initialization must happen before the session store and the
	// registry: it yields the worker id used for session id generation and
	// determines the broadcaster wiring.
	workerID := clusterInit(config.Cluster, *clusterSelf)

	if err := store.Open(config.Store); err != nil {
		logs.Err.Fatalln("Failed to connect to DB:", err)
	}
	logs.Info.Println("DB adapter opened:", store.GetAdapterName())
	defer func() {
		store.Close()
		logs.Info.Println("Closed database connection(s)")
	}()

	var err error
	globals.sessionStore, err = NewSessionStore(workerID)
	if err != nil {
		logs.Err.Fatalln("Failed to init session store:", err)
	}

	globals.registry = newRegistry()
	if globals.cluster != nil {
		globals.registry.broadcaster = &clusterBroadcaster{
			local:   &localBroadcaster{reg: globals.registry},
			cluster: globals.cluster,
		}
	}
	globals.broadcaster = globals.registry.broadcaster

	globals.notifications = newNotifications(globals.registry, config.Debug)
	globals.oracle = newStoreOracle(config.AdminUsers)
	globals.notifications.Configure(globals.oracle)

	globals.identity = newStaticIdentity(config.ResumeTokens)
	globals.presence = newMemPresence(globals.notifications)

	globals.feed = newFeed()
	globals.pubs = newPubServer()
	if err := registerBuiltinPublications(context.Background(), globals.pubs, globals.feed); err != nil {
		logs.Err.Fatalln("Failed to register publications:", err)
	}

	if globals.cluster != nil {
		globals.cluster.start()
	}

	mux.HandleFunc(config.WSPath, serveWebSocket)
	logs.Info.Printf("Websocket endpoint at '%s'", config.WSPath)

	if err := listenAndServe(config.Listen, mux, signalHandler()); err != nil {
		logs.Err.Fatalln(err)
	}

	statsShutdown()
	logs.Info.Println("All done, good bye")
}
