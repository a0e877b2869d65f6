// Package store provides methods for registering and accessing database adapters.
package store

import (
	"context"
	"encoding/json"
	"errors"

	adapter "github.com/notifex/notifex/server/db"
	"github.com/notifex/notifex/server/store/types"
)

var adp adapter.Adapter
var availableAdapters = make(map[string]adapter.Adapter)

type configType struct {
	// DB adapter name to use. Should be one of those specified in `Adapters`.
	UseAdapter string `json:"use_adapter"`
	// Configurations for individual adapters.
	Adapters map[string]json.RawMessage `json:"adapters"`
}

// Open initializes the persistence system. Adapter name and configuration
// are taken from the `store_config` section of the config file.
func Open(jsonconf json.RawMessage) error {
	var config configType
	if err := json.Unmarshal(jsonconf, &config); err != nil {
		return errors.New("store: failed to parse config: " + err.Error())
	}

	if adp == nil {
		if len(config.UseAdapter) > 0 {
			// Adapter name specified explicitly.
			if ad, ok := availableAdapters[config.UseAdapter]; ok {
				adp = ad
			} else {
				return errors.New("store: " + config.UseAdapter + " adapter is not available in this binary")
			}
		} else if len(availableAdapters) == 1 {
			// Default to the only entry in availableAdapters.
			for _, v := range availableAdapters {
				adp = v
			}
		} else {
			return errors.New("store: db adapter is not specified")
		}
	}

	if adp.IsOpen() {
		return errors.New("store: connection is already opened")
	}

	var adapterConfig json.RawMessage
	if config.Adapters != nil {
		adapterConfig = config.Adapters[adp.GetName()]
	}

	return adp.Open(adapterConfig)
}

// Close terminates the connection to the persistent storage.
func Close() error {
	if adp == nil || !adp.IsOpen() {
		return nil
	}
	return adp.Close()
}

// IsOpen checks if persistent storage is ready for use.
func IsOpen() bool {
	return adp != nil && adp.IsOpen()
}

// GetAdapterName returns the name of the current adapter.
func GetAdapterName() string {
	if adp == nil {
		return ""
	}
	return adp.GetName()
}

// RegisterAdapter makes a persistence adapter available.
// If Register is called twice or if the adapter is nil, it panics.
func RegisterAdapter(a adapter.Adapter) {
	if a == nil {
		panic("store: Register adapter is nil")
	}

	name := a.GetName()
	if _, ok := availableAdapters[name]; ok {
		panic("store: adapter '" + name + "' is already registered")
	}
	availableAdapters[name] = a
}

// RoomsObjMapperInterface is the contract of the rooms persistence mapper.
type RoomsObjMapperInterface interface {
	Get(id string) (*types.Room, error)
}

// RoomsObjMapper is a rooms struct to hold methods for persistence mapping
// for the Room object.
type RoomsObjMapper struct{}

// Rooms is the anchor for retrieving Room objects.
var Rooms RoomsObjMapperInterface = RoomsObjMapper{}

// Get loads a room record by id.
func (RoomsObjMapper) Get(id string) (*types.Room, error) {
	return adp.RoomGet(id)
}

// SubsObjMapperInterface is the contract of the room membership mapper.
type SubsObjMapperInterface interface {
	CountByRoomAndUser(roomID, userID string) (int, error)
	FindByRoomExcludingUser(roomID, userID string) ([]types.Subscription, error)
}

// SubsObjMapper is a struct to hold methods for persistence mapping for the
// Subscription object.
type SubsObjMapper struct{}

// Subs is the anchor for retrieving room membership records.
var Subs SubsObjMapperInterface = SubsObjMapper{}

// CountByRoomAndUser returns the number of membership records of the user in the room.
func (SubsObjMapper) CountByRoomAndUser(roomID, userID string) (int, error) {
	return adp.SubsCountByRoomAndUser(roomID, userID)
}

// FindByRoomExcludingUser returns memberships of the room except those of the given user.
func (SubsObjMapper) FindByRoomExcludingUser(roomID, userID string) ([]types.Subscription, error) {
	return adp.SubsForRoomExcludingUser(roomID, userID)
}

// UsersObjMapperInterface is the contract of the users persistence mapper.
type UsersObjMapperInterface interface {
	Get(id string) (*types.User, error)
}

// UsersObjMapper is a users struct to hold methods for persistence mapping
// for the User object.
type UsersObjMapper struct{}

// Users is the anchor for retrieving User objects.
var Users UsersObjMapperInterface = UsersObjMapper{}

// Get loads a user record by id.
func (UsersObjMapper) Get(id string) (*types.User, error) {
	return adp.UserGet(id)
}

// SettingsObjMapperInterface is the contract of the settings mapper.
type SettingsObjMapperInterface interface {
	Value(key string) (interface{}, error)
	Bool(key string) (bool, error)
}

// SettingsObjMapper is a struct to hold methods for reading settings.
type SettingsObjMapper struct{}

// Settings is the anchor for reading configuration settings.
var Settings SettingsObjMapperInterface = SettingsObjMapper{}

// Value returns the raw value of the named setting.
func (SettingsObjMapper) Value(key string) (interface{}, error) {
	return adp.SettingGet(key)
}

// Bool returns the named setting coerced to a boolean. Missing or
// non-boolean values read as false.
func (SettingsObjMapper) Bool(key string) (bool, error) {
	val, err := adp.SettingGet(key)
	if err != nil {
		return false, err
	}
	b, _ := val.(bool)
	return b, nil
}

// PubsObjMapperInterface is the contract of publication bulk loads and the
// change feed.
type PubsObjMapperInterface interface {
	LoginServices() ([]types.LoginService, error)
	ClientVersions() ([]types.ClientVersion, error)
	Watch(ctx context.Context, collection string) (<-chan types.ChangeEvent, error)
}

// PubsObjMapper is a struct to hold methods for publication reads.
type PubsObjMapper struct{}

// Pubs is the anchor for publication bulk loads and change feeds.
var Pubs PubsObjMapperInterface = PubsObjMapper{}

// LoginServices returns all login service configuration records.
func (PubsObjMapper) LoginServices() ([]types.LoginService, error) {
	return adp.LoginServicesGetAll()
}

// ClientVersions returns all auto-update client version records.
func (PubsObjMapper) ClientVersions() ([]types.ClientVersion, error) {
	return adp.ClientVersionsGetAll()
}

// Watch streams mutations of the named collection.
func (PubsObjMapper) Watch(ctx context.Context, collection string) (<-chan types.ChangeEvent, error) {
	return adp.Watch(ctx, collection)
}
