// Package adapter contains the interfaces to be implemented by the database adapter.
package adapter

import (
	"context"
	"encoding/json"

	t "github.com/notifex/notifex/server/store/types"
)

// Adapter is the interface that must be implemented by a database adapter.
// The current schema supports a single connection by database type.
type Adapter interface {
	// General

	// Open and configure the adapter.
	Open(config json.RawMessage) error
	// Close the adapter.
	Close() error
	// IsOpen checks if the adapter is ready for use.
	IsOpen() bool
	// GetName returns the name of the adapter.
	GetName() string
	// Stats returns a db connection stats object.
	Stats() interface{}

	// Rooms

	// RoomGet returns a room record for the given id, nil if not found.
	RoomGet(id string) (*t.Room, error)

	// Subscriptions (room memberships)

	// SubsCountByRoomAndUser returns the number of membership records for the
	// given (room, user) pair.
	SubsCountByRoomAndUser(roomID, userID string) (int, error)
	// SubsForRoomExcludingUser returns membership records of the room omitting
	// records of the given user.
	SubsForRoomExcludingUser(roomID, userID string) ([]t.Subscription, error)

	// Users

	// UserGet returns a user record for the given id, nil if not found.
	UserGet(id string) (*t.User, error)

	// Settings

	// SettingGet returns the value of the named setting, nil if not set.
	SettingGet(key string) (interface{}, error)

	// Publication bulk loads

	// LoginServicesGetAll returns all login service configuration records.
	LoginServicesGetAll() ([]t.LoginService, error)
	// ClientVersionsGetAll returns all auto-update client version records.
	ClientVersionsGetAll() ([]t.ClientVersion, error)

	// Change feed

	// Watch streams mutations of the named collection until the context is
	// cancelled. Returns t.ErrUnsupported if the adapter cannot watch.
	Watch(ctx context.Context, collection string) (<-chan t.ChangeEvent, error)
}
