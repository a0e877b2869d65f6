// Package auth defines the subscriber identity passed to access predicates
// and the contracts of the external identity, authorization and presence
// services consumed by the notification bus.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/notifex/notifex/server/store/types"
)

// Request identifies the subscriber on whose behalf a subscribe, write or
// emit check is performed. It is passed to predicates explicitly; predicates
// must not rely on any ambient session state.
type Request struct {
	// ID of the authenticated user. Empty for anonymous subscribers.
	SubscriberID string
	// ID of the connection which created the subscription.
	SessionID string
	// Arbitrary additional authentication data, e.g. a livechat visitor token.
	Extra map[string]string
}

// Logged reports whether the request comes from an authenticated subscriber.
func (r Request) Logged() bool {
	return r.SubscriberID != ""
}

// Token returns the livechat visitor token, if one was provided.
func (r Request) Token() string {
	return r.Extra["token"]
}

// Oracle answers room access and permission questions. Implemented by the
// authorization service; treated as a black box by the bus.
type Oracle interface {
	// CanAccessRoom checks if the given user may access the room.
	CanAccessRoom(ctx context.Context, room *types.Room, userID string) (bool, error)
	// HasPermission checks if the user holds the named permission.
	HasPermission(ctx context.Context, userID, permission string) (bool, error)
	// HasAtLeastOnePermission checks if the user holds any of the named permissions.
	HasAtLeastOnePermission(ctx context.Context, userID string, permissions []string) (bool, error)
}

// ErrLoginFailed is returned by Identity.Login when the credentials or the
// resume token are not accepted. It is the only authentication error which
// is surfaced to the client.
var ErrLoginFailed = errors.New("auth: login failed")

// LoginRequest carries either a resume token or a username/password pair.
type LoginRequest struct {
	Resume   string `json:"resume,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	UID          string    `json:"id"`
	Token        string    `json:"token"`
	TokenExpires time.Time `json:"tokenExpires"`
	Type         string    `json:"type"`
}

// Identity is the external login/token service.
type Identity interface {
	// Login authenticates a client. A nil result without an error is treated
	// as ErrLoginFailed.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

// Presence is the external presence/session tracker.
type Presence interface {
	SetStatus(ctx context.Context, userID, status, statusText string) error
	SetConnectionStatus(ctx context.Context, userID, status, sessionID string) error
	NewConnection(ctx context.Context, userID, sessionID string) error
	RemoveConnection(ctx context.Context, userID, sessionID string) error
}
