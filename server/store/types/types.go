// Package types provides data types for persisting objects in the databases.
package types

import (
	"errors"
	"time"
)

var (
	// ErrNotFound means the object was not found.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported means the operation is not supported by the adapter.
	ErrUnsupported = errors.New("operation not supported")
)

// Room types as stored in the room record.
const (
	// RoomTypeChannel is a public channel.
	RoomTypeChannel = "c"
	// RoomTypePrivate is a private group.
	RoomTypePrivate = "p"
	// RoomTypeDirect is a direct message room.
	RoomTypeDirect = "d"
	// RoomTypeLivechat is an omnichannel/livechat room.
	RoomTypeLivechat = "l"
)

// Visitor is the livechat visitor attached to a livechat room.
type Visitor struct {
	ID    string `json:"_id" bson:"_id"`
	Token string `json:"token" bson:"token"`
}

// Room is a stored room record.
type Room struct {
	ID        string    `json:"_id" bson:"_id"`
	Type      string    `json:"t" bson:"t"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Visitor   *Visitor  `json:"v,omitempty" bson:"v,omitempty"`
	UpdatedAt time.Time `json:"_updatedAt,omitempty" bson:"_updatedAt,omitempty"`
}

// Subscription is a stored room membership record: one per (room, user) pair.
type Subscription struct {
	ID     string `json:"_id" bson:"_id"`
	RoomID string `json:"rid" bson:"rid"`
	UserID string `json:"uid" bson:"u._id"`
}

// User is a stored user record.
type User struct {
	ID       string `json:"_id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	// Name is the display ("real") name, may be empty.
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// Setting is a stored configuration setting.
type Setting struct {
	ID    string      `json:"_id" bson:"_id"`
	Value interface{} `json:"value" bson:"value"`
}

// LoginService is a login service configuration record published to clients
// through the login-service-configuration publication.
type LoginService struct {
	ID      string                 `json:"_id" bson:"_id"`
	Service string                 `json:"service" bson:"service"`
	Fields  map[string]interface{} `json:"fields,omitempty" bson:"fields,omitempty"`
}

// ClientVersion is an auto-update client version record.
type ClientVersion struct {
	ID      string `json:"_id" bson:"_id"`
	Version string `json:"version" bson:"version"`
}

// ChangeAction is the kind of mutation reported by a store change feed.
type ChangeAction int

// Change feed actions.
const (
	ChangeAdded ChangeAction = iota
	ChangeChanged
	ChangeRemoved
)

func (a ChangeAction) String() string {
	switch a {
	case ChangeAdded:
		return "added"
	case ChangeChanged:
		return "changed"
	case ChangeRemoved:
		return "removed"
	}
	return "unknown"
}

// ChangeEvent is a single mutation observed on a watched collection.
type ChangeEvent struct {
	Collection string
	Action     ChangeAction
	ID         string
	// Record is the full document after the change; nil for removals.
	Record map[string]interface{}
}

// TimeNow returns current wall time in UTC rounded to milliseconds.
func TimeNow() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
