/******************************************************************************
 *
 *  Description :
 *
 *  Management of live sessions.
 *
 *****************************************************************************/

package main

import (
	"encoding/base64"
	"encoding/binary"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	sf "github.com/tinode/snowflake"

	"github.com/notifex/notifex/server/logs"
)

// SessionStore holds live sessions, indexed by session ID.
type SessionStore struct {
	lock sync.Mutex

	sidGen *sf.SnowFlake

	sessCache map[string]*Session
}

// NewSessionStore initializes the session store. The workerID makes session
// IDs unique across cluster nodes.
func NewSessionStore(workerID int) (*SessionStore, error) {
	gen, err := sf.NewSnowFlake(uint32(workerID))
	if err != nil {
		return nil, err
	}

	return &SessionStore{
		sidGen:    gen,
		sessCache: make(map[string]*Session),
	}, nil
}

// nextSID generates a unique session ID.
func (ss *SessionStore) nextSID() string {
	id, err := ss.sidGen.Next()
	if err != nil {
		logs.Err.Println("sessionstore: sid gen:", err)
		return ""
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, id)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf)
}

// NewSession creates a new session and saves it to the session store.
func (ss *SessionStore) NewSession(conn interface{}, sid string) (*Session, int) {
	var s Session

	s.sid = sid

	switch c := conn.(type) {
	case *websocket.Conn:
		s.proto = WEBSOCK
		s.ws = c
	default:
		s.proto = NONE
	}

	if s.proto != NONE {
		s.subs = make(map[string]*Subscription)
		s.pubs = make(map[string]*Publication)
		s.send = make(chan interface{}, 256) // buffered
		s.stop = make(chan interface{}, 1)   // Buffered by 1 just to make it non-blocking
	}

	s.lastAction = time.Now().UTC()
	if s.sid == "" {
		s.sid = ss.nextSID()
	}

	ss.lock.Lock()
	ss.sessCache[s.sid] = &s
	count := len(ss.sessCache)
	ss.lock.Unlock()

	statsInc("LiveSessions", 1)
	statsInc("TotalSessions", 1)

	return &s, count
}

// Get fetches a session from the store by session ID.
func (ss *SessionStore) Get(sid string) *Session {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	return ss.sessCache[sid]
}

// Delete removes a session from the store, returns the remaining session count.
func (ss *SessionStore) Delete(s *Session) int {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if _, ok := ss.sessCache[s.sid]; ok {
		delete(ss.sessCache, s.sid)
		statsInc("LiveSessions", -1)
	}

	return len(ss.sessCache)
}

// Shutdown terminates all sessions. No need to clean up the store, the server
// is stopping.
func (ss *SessionStore) Shutdown() {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	shutdown := NoErr("", time.Now().UTC())
	for _, s := range ss.sessCache {
		if !s.queueOut(shutdown) {
			logs.Err.Println("sessionStore.Shutdown: timeout", s.sid)
		}
		if s.stop != nil {
			s.stop <- shutdown
		}
	}

	logs.Info.Println("SessionStore shut down, sessions terminated:", len(ss.sessCache))
}
