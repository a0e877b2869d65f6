/******************************************************************************
 *
 *  Description :
 *
 *  In-process implementations of the auth collaborator interfaces. They keep
 *  a standalone server usable without a separate authorization, account or
 *  presence service; deployments with such services substitute their own.
 *
 *****************************************************************************/

package main

import (
	"context"
	"sync"
	"time"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/store"
	"github.com/notifex/notifex/server/store/types"
)

// storeOracle answers access questions from the subscription store. Public
// channel rooms are open to everyone, anything else requires a subscription
// record. Permissions are granted to the configured admin users only.
type storeOracle struct {
	admins map[string]bool
}

func newStoreOracle(admins []string) *storeOracle {
	o := &storeOracle{admins: make(map[string]bool)}
	for _, uid := range admins {
		o.admins[uid] = true
	}
	return o
}

func (o *storeOracle) CanAccessRoom(_ context.Context, room *types.Room, userID string) (bool, error) {
	if room == nil {
		return false, nil
	}
	if room.Type == types.RoomTypeChannel {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	count, err := store.Subs.CountByRoomAndUser(room.ID, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (o *storeOracle) HasPermission(_ context.Context, userID, _ string) (bool, error) {
	return o.admins[userID], nil
}

func (o *storeOracle) HasAtLeastOnePermission(ctx context.Context, userID string, permissions []string) (bool, error) {
	for _, p := range permissions {
		ok, err := o.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// tokenExpiresIn is the advertised lifetime of a resume token.
const tokenExpiresIn = 14 * 24 * time.Hour

// staticIdentity authenticates resume tokens against a fixed token table
// from the config file.
type staticIdentity struct {
	// Resume token to subscriber id.
	tokens map[string]string
}

func newStaticIdentity(tokens map[string]string) *staticIdentity {
	if tokens == nil {
		tokens = make(map[string]string)
	}
	return &staticIdentity{tokens: tokens}
}

func (i *staticIdentity) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	if req.Resume == "" {
		return nil, auth.ErrLoginFailed
	}
	uid, ok := i.tokens[req.Resume]
	if !ok {
		return nil, auth.ErrLoginFailed
	}
	return &auth.LoginResult{
		UID:          uid,
		Token:        req.Resume,
		TokenExpires: types.TimeNow().Add(tokenExpiresIn),
		Type:         "resume",
	}, nil
}

// memPresence tracks connections in memory and broadcasts status changes to
// logged-in subscribers as user-status events.
type memPresence struct {
	mu sync.Mutex

	// Live connections per subscriber.
	conns map[string]map[string]bool

	// Default status per subscriber, reported when connections exist.
	status map[string]string

	notify *Notifications
}

func newMemPresence(n *Notifications) *memPresence {
	return &memPresence{
		conns:  make(map[string]map[string]bool),
		status: make(map[string]string),
		notify: n,
	}
}

func (p *memPresence) broadcast(userID, status string) {
	if p.notify != nil {
		p.notify.NotifyLogged("user-status", []interface{}{userID, status})
	}
}

func (p *memPresence) SetStatus(_ context.Context, userID, status, _ string) error {
	p.mu.Lock()
	p.status[userID] = status
	p.mu.Unlock()

	p.broadcast(userID, status)
	return nil
}

func (p *memPresence) SetConnectionStatus(_ context.Context, userID, status, _ string) error {
	p.mu.Lock()
	p.status[userID] = status
	p.mu.Unlock()

	p.broadcast(userID, status)
	return nil
}

func (p *memPresence) NewConnection(_ context.Context, userID, sessionID string) error {
	p.mu.Lock()
	first := len(p.conns[userID]) == 0
	if p.conns[userID] == nil {
		p.conns[userID] = make(map[string]bool)
	}
	p.conns[userID][sessionID] = true
	status := p.status[userID]
	if status == "" {
		status = "online"
	}
	p.mu.Unlock()

	if first {
		p.broadcast(userID, status)
	}
	return nil
}

func (p *memPresence) RemoveConnection(_ context.Context, userID, sessionID string) error {
	p.mu.Lock()
	delete(p.conns[userID], sessionID)
	last := len(p.conns[userID]) == 0
	if last {
		delete(p.conns, userID)
	}
	p.mu.Unlock()

	if last {
		p.broadcast(userID, "offline")
	}
	return nil
}
