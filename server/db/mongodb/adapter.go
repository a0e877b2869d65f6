// Package mongodb is a database adapter for MongoDB.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/notifex/notifex/server/store"
	t "github.com/notifex/notifex/server/store/types"
	b "go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	mdbopts "go.mongodb.org/mongo-driver/mongo/options"
)

// adapter holds MongoDB connection data.
type adapter struct {
	conn   *mdb.Client
	db     *mdb.Database
	dbName string
	ctx    context.Context
}

const (
	defaultHost     = "localhost:27017"
	defaultDatabase = "notifex"

	adapterName = "mongodb"

	defaultQueryTimeout = 10 * time.Second
)

// Collection names used by the adapter.
const (
	collRooms         = "rooms"
	collSubscriptions = "subscriptions"
	collUsers         = "users"
	collSettings      = "settings"
	collLoginServices = "login_service_configuration"
	collVersions      = "autoupdate_client_versions"
)

// See https://godoc.org/go.mongodb.org/mongo-driver/mongo/options#ClientOptions for explanations.
type configType struct {
	Addresses      interface{} `json:"addresses,omitempty"`
	ConnectTimeout int         `json:"timeout,omitempty"`

	// Options separately from ClientOptions (custom options):
	Database   string `json:"database,omitempty"`
	ReplicaSet string `json:"replica_set,omitempty"`

	AuthSource string `json:"auth_source,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Open initializes a mongodb session.
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.conn != nil {
		return errors.New("adapter mongodb is already connected")
	}

	var err error
	var config configType
	if len(jsonconfig) > 0 {
		if err = json.Unmarshal(jsonconfig, &config); err != nil {
			return errors.New("adapter mongodb failed to parse config: " + err.Error())
		}
	}

	var opts mdbopts.ClientOptions

	if config.Addresses == nil {
		opts.SetHosts([]string{defaultHost})
	} else if host, ok := config.Addresses.(string); ok {
		opts.SetHosts([]string{host})
	} else if ihosts, ok := config.Addresses.([]interface{}); ok {
		hosts := make([]string, 0, len(ihosts))
		for _, ih := range ihosts {
			host, ok := ih.(string)
			if !ok || host == "" {
				return errors.New("adapter mongodb invalid config.Addresses value")
			}
			hosts = append(hosts, host)
		}
		opts.SetHosts(hosts)
	} else {
		return errors.New("adapter mongodb failed to parse config.Addresses")
	}

	if config.Database == "" {
		a.dbName = defaultDatabase
	} else {
		a.dbName = config.Database
	}

	if config.ReplicaSet != "" {
		// Change streams are only available against a replica set.
		opts.SetReplicaSet(config.ReplicaSet)
	}

	if config.Username != "" {
		if config.AuthSource == "" {
			config.AuthSource = "admin"
		}
		opts.SetAuth(
			mdbopts.Credential{
				AuthMechanism: "SCRAM-SHA-256",
				AuthSource:    config.AuthSource,
				Username:      config.Username,
				Password:      config.Password,
				PasswordSet:   config.Password != "",
			})
	}

	if config.ConnectTimeout > 0 {
		opts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	}

	a.ctx = context.Background()
	a.conn, err = mdb.Connect(a.ctx, &opts)
	if err != nil {
		return err
	}
	a.db = a.conn.Database(a.dbName)

	return nil
}

// Close the adapter.
func (a *adapter) Close() error {
	var err error
	if a.conn != nil {
		err = a.conn.Disconnect(a.ctx)
		a.conn = nil
	}
	return err
}

// IsOpen returns true if the adapter is ready for use.
func (a *adapter) IsOpen() bool {
	return a.conn != nil
}

// GetName returns the name of the adapter.
func (a *adapter) GetName() string {
	return adapterName
}

// Stats returns the DB connection stats object.
func (a *adapter) Stats() interface{} {
	if a.db == nil {
		return nil
	}
	var result b.M
	if err := a.db.RunCommand(a.ctx, b.D{{Key: "serverStatus", Value: 1}}).Decode(&result); err != nil {
		return nil
	}
	return result["connections"]
}

func (a *adapter) qctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, defaultQueryTimeout)
}

// RoomGet loads a room record by id.
func (a *adapter) RoomGet(id string) (*t.Room, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	var room t.Room
	err := a.db.Collection(collRooms).FindOne(ctx, b.M{"_id": id}).Decode(&room)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// SubsCountByRoomAndUser returns the number of membership records for the (room, user) pair.
func (a *adapter) SubsCountByRoomAndUser(roomID, userID string) (int, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	count, err := a.db.Collection(collSubscriptions).CountDocuments(ctx,
		b.M{"rid": roomID, "u._id": userID})
	return int(count), err
}

// SubsForRoomExcludingUser returns memberships of the room except those of the given user.
func (a *adapter) SubsForRoomExcludingUser(roomID, userID string) ([]t.Subscription, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	cur, err := a.db.Collection(collSubscriptions).Find(ctx,
		b.M{"rid": roomID, "u._id": b.M{"$ne": userID}},
		mdbopts.Find().SetProjection(b.M{"rid": 1, "u._id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subs []t.Subscription
	for cur.Next(ctx) {
		var sub t.Subscription
		if err = cur.Decode(&sub); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, cur.Err()
}

// UserGet loads a user record by id.
func (a *adapter) UserGet(id string) (*t.User, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	var user t.User
	err := a.db.Collection(collUsers).FindOne(ctx, b.M{"_id": id}).Decode(&user)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SettingGet returns the value of the named setting.
func (a *adapter) SettingGet(key string) (interface{}, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	var setting t.Setting
	err := a.db.Collection(collSettings).FindOne(ctx, b.M{"_id": key}).Decode(&setting)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return setting.Value, nil
}

// LoginServicesGetAll returns all login service configuration records.
func (a *adapter) LoginServicesGetAll() ([]t.LoginService, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	cur, err := a.db.Collection(collLoginServices).Find(ctx, b.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []t.LoginService
	if err = cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ClientVersionsGetAll returns all auto-update client version records.
func (a *adapter) ClientVersionsGetAll() ([]t.ClientVersion, error) {
	ctx, cancel := a.qctx()
	defer cancel()

	cur, err := a.db.Collection(collVersions).Find(ctx, b.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []t.ClientVersion
	if err = cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Watch streams mutations of the named collection through a change stream.
// The stream runs until the context is cancelled. Requires a replica set.
func (a *adapter) Watch(ctx context.Context, collection string) (<-chan t.ChangeEvent, error) {
	stream, err := a.db.Collection(collection).Watch(ctx, mdb.Pipeline{},
		mdbopts.ChangeStream().SetFullDocument(mdbopts.UpdateLookup))
	if err != nil {
		return nil, err
	}

	out := make(chan t.ChangeEvent, 64)
	go func() {
		defer close(out)
		defer stream.Close(a.ctx)

		for stream.Next(ctx) {
			var change struct {
				OperationType string `bson:"operationType"`
				DocumentKey   struct {
					ID string `bson:"_id"`
				} `bson:"documentKey"`
				FullDocument b.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				continue
			}

			var action t.ChangeAction
			switch change.OperationType {
			case "insert":
				action = t.ChangeAdded
			case "update", "replace":
				action = t.ChangeChanged
			case "delete":
				action = t.ChangeRemoved
			default:
				continue
			}

			out <- t.ChangeEvent{
				Collection: collection,
				Action:     action,
				ID:         change.DocumentKey.ID,
				Record:     map[string]interface{}(change.FullDocument),
			}
		}
	}()

	return out, nil
}

func init() {
	store.RegisterAdapter(&adapter{})
}
