/******************************************************************************
 *
 *  Description :
 *
 *    Notification facade: the set of named, pre-configured channels with
 *    their authorization wiring, and the notify* producer API used by the
 *    rest of the system.
 *
 *****************************************************************************/

package main

import (
	"context"
	"strings"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
	"github.com/notifex/notifex/server/store"
	"github.com/notifex/notifex/server/store/types"
)

// myMessagesFilter is the catch-all filter on the room messages channel:
// a subscriber under this filter sees messages of all rooms it may access,
// gated per message by the emit rule.
const myMessagesFilter = "__my_messages__"

// RoomParticipation is the payload substituted for subscribers of the
// my-messages filter: per-subscriber room metadata instead of the message.
type RoomParticipation struct {
	RoomParticipant bool   `json:"roomParticipant"`
	RoomType        string `json:"roomType"`
	RoomName        string `json:"roomName"`
}

// ImportProgress is the payload of importer progress ticks.
type ImportProgress struct {
	Rate float64 `json:"rate"`
}

// Notifications is the facade over the pre-configured channels.
type Notifications struct {
	debug bool

	StreamAll                *Channel
	StreamLogged             *Channel
	StreamRoom               *Channel
	StreamRoomUsers          *Channel
	StreamUser               *Channel
	StreamRoomMessage        *Channel
	StreamImporters          *Channel
	StreamRoles              *Channel
	StreamApps               *Channel
	StreamAppsEngine         *Channel
	StreamCannedResponses    *Channel
	StreamIntegrationHistory *Channel
	StreamLivechatRoom       *Channel
	StreamLivechatQueue      *Channel
	StreamStdout             *Channel
	StreamRoomData           *Channel
}

func newNotifications(reg *Registry, debug bool) *Notifications {
	return &Notifications{
		debug: debug,

		StreamAll:       reg.NewChannel("notify-all", nil),
		StreamLogged:    reg.NewChannel("notify-logged", nil),
		StreamRoom:      reg.NewChannel("notify-room", nil),
		StreamRoomUsers: reg.NewChannel("notify-room-users", nil),
		StreamUser:      reg.NewChannel("notify-user", nil),
		StreamRoomMessage: reg.NewChannel("room-messages",
			&ChannelOpts{Retransmit: true, Wildcard: myMessagesFilter}),
		StreamImporters: reg.NewChannel("importers", &ChannelOpts{Retransmit: false}),
		StreamRoles:     reg.NewChannel("roles", nil),
		StreamApps: reg.NewChannel("apps",
			&ChannelOpts{Retransmit: false, ServerOnly: true}),
		StreamAppsEngine: reg.NewChannel("apps-engine",
			&ChannelOpts{Retransmit: false, ServerOnly: true}),
		StreamCannedResponses:    reg.NewChannel("canned-responses", nil),
		StreamIntegrationHistory: reg.NewChannel("integrationHistory", nil),
		StreamLivechatRoom:       reg.NewChannel("livechat-room", nil),
		StreamLivechatQueue:      reg.NewChannel("livechat-inquiry-queue-observer", nil),
		StreamStdout:             reg.NewChannel("stdout", nil),
		StreamRoomData:           reg.NewChannel("room-data", nil),
	}
}

// Configure wires the access rules of every channel. Must run once, before
// the server starts accepting subscriptions; rules are immutable afterwards.
func (n *Notifications) Configure(oracle auth.Oracle) {
	n.StreamRoomMessage.AllowWrite(Fixed(PolicyNone))
	n.StreamRoomMessage.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, eventName string, _ []interface{}) (interface{}, error) {
		room, err := store.Rooms.Get(eventName)
		if err != nil {
			return false, err
		}
		if room == nil {
			return false, nil
		}

		canAccess, err := oracle.CanAccessRoom(ctx, room, req.SubscriberID)
		if err != nil {
			return false, err
		}
		if !canAccess {
			// Maybe the subscriber can preview messages of public channels.
			if room.Type == types.RoomTypeChannel {
				return oracle.HasPermission(ctx, req.SubscriberID, "preview-c-room")
			}
			return false, nil
		}

		return true, nil
	}))

	n.StreamRoomMessage.AllowReadFor(myMessagesFilter, Fixed(PolicyAll))
	n.StreamRoomMessage.AllowEmitFor(myMessagesFilter, Dynamic(func(ctx context.Context, req auth.Request, _ string, args []interface{}) (interface{}, error) {
		rid := messageRoomID(args)
		if rid == "" {
			return false, nil
		}

		room, err := store.Rooms.Get(rid)
		if err != nil {
			return false, err
		}
		if room == nil {
			return false, nil
		}

		canAccess, err := oracle.CanAccessRoom(ctx, room, req.SubscriberID)
		if err != nil || !canAccess {
			return false, err
		}

		participant, err := store.Subs.CountByRoomAndUser(room.ID, req.SubscriberID)
		if err != nil {
			return false, err
		}

		return &RoomParticipation{
			RoomParticipant: participant > 0,
			RoomType:        room.Type,
			RoomName:        room.Name,
		}, nil
	}))

	n.StreamAll.AllowWrite(Fixed(PolicyNone))
	n.StreamAll.AllowRead(Fixed(PolicyAll))

	n.StreamLogged.AllowWrite(Fixed(PolicyNone))
	n.StreamLogged.AllowRead(Fixed(PolicyLogged))

	n.StreamRoom.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, eventName string, _ []interface{}) (interface{}, error) {
		if !req.Logged() {
			return false, nil
		}

		rid, _, _ := strings.Cut(eventName, "/")

		// Typing from the livechat widget.
		if token := req.Token(); token != "" {
			return livechatTokenMatch(rid, token)
		}

		count, err := store.Subs.CountByRoomAndUser(rid, req.SubscriberID)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	}))

	n.StreamRoom.AllowWrite(Dynamic(func(ctx context.Context, req auth.Request, eventName string, args []interface{}) (interface{}, error) {
		rid, ev, _ := strings.Cut(eventName, "/")

		if ev == "webrtc" {
			return true, nil
		}
		if ev != "typing" {
			return false, nil
		}

		// Typing from the livechat widget.
		if token := req.Token(); token != "" {
			return livechatTokenMatch(rid, token)
		}

		useRealName, err := store.Settings.Bool("UI_Use_Real_Name")
		if err != nil {
			return false, err
		}

		user, err := store.Users.Get(req.SubscriberID)
		if err != nil {
			return false, err
		}
		if user == nil {
			return false, nil
		}

		// The writer may only announce typing under its own identity.
		username, _ := firstString(args)
		if useRealName {
			return user.Name == username, nil
		}
		return user.Username == username, nil
	}))

	n.StreamRoomUsers.AllowRead(Fixed(PolicyNone))
	n.StreamRoomUsers.AllowWrite(Dynamic(func(ctx context.Context, req auth.Request, eventName string, args []interface{}) (interface{}, error) {
		rid, ev, _ := strings.Cut(eventName, "/")

		count, err := store.Subs.CountByRoomAndUser(rid, req.SubscriberID)
		if err != nil {
			return false, err
		}
		if count > 0 {
			// Redirect fan-out: nothing is emitted on this channel, every
			// other member of the room gets a per-user notification instead.
			subs, err := store.Subs.FindByRoomExcludingUser(rid, req.SubscriberID)
			if err != nil {
				return false, err
			}
			for _, sub := range subs {
				n.NotifyUser(sub.UserID, ev, args...)
			}
		}
		return false, nil
	}))

	n.StreamUser.AllowWrite(Fixed(PolicyLogged))
	n.StreamUser.AllowRead(Dynamic(func(_ context.Context, req auth.Request, eventName string, _ []interface{}) (interface{}, error) {
		uid, _, _ := strings.Cut(eventName, "/")
		return req.Logged() && req.SubscriberID == uid, nil
	}))

	n.StreamImporters.AllowRead(Fixed(PolicyAll))
	n.StreamImporters.AllowEmit(Fixed(PolicyAll))
	n.StreamImporters.AllowWrite(Fixed(PolicyNone))

	n.StreamApps.AllowRead(Fixed(PolicyAll))
	n.StreamApps.AllowEmit(Fixed(PolicyAll))
	n.StreamApps.AllowWrite(Fixed(PolicyNone))

	n.StreamAppsEngine.AllowRead(Fixed(PolicyNone))
	n.StreamAppsEngine.AllowEmit(Fixed(PolicyAll))
	n.StreamAppsEngine.AllowWrite(Fixed(PolicyNone))

	n.StreamCannedResponses.AllowWrite(Fixed(PolicyNone))
	n.StreamCannedResponses.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, _ string, _ []interface{}) (interface{}, error) {
		if !req.Logged() {
			return false, nil
		}
		enabled, err := store.Settings.Bool("Canned_Responses_Enable")
		if err != nil || !enabled {
			return false, err
		}
		return oracle.HasPermission(ctx, req.SubscriberID, "view-canned-responses")
	}))

	n.StreamIntegrationHistory.AllowWrite(Fixed(PolicyNone))
	n.StreamIntegrationHistory.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, _ string, _ []interface{}) (interface{}, error) {
		if !req.Logged() {
			return false, nil
		}
		return oracle.HasAtLeastOnePermission(ctx, req.SubscriberID, []string{
			"manage-outgoing-integrations",
			"manage-own-outgoing-integrations",
		})
	}))

	// Read rules of the livechat channels are wired by the livechat
	// subsystem; unset rules deny everyone.
	n.StreamLivechatRoom.AllowWrite(Fixed(PolicyNone))
	n.StreamLivechatQueue.AllowWrite(Fixed(PolicyNone))

	n.StreamStdout.AllowWrite(Fixed(PolicyNone))
	n.StreamStdout.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, _ string, _ []interface{}) (interface{}, error) {
		if !req.Logged() {
			return false, nil
		}
		return oracle.HasPermission(ctx, req.SubscriberID, "view-logs")
	}))

	n.StreamRoomData.AllowWrite(Fixed(PolicyNone))
	n.StreamRoomData.AllowRead(Dynamic(func(ctx context.Context, req auth.Request, eventName string, _ []interface{}) (interface{}, error) {
		room, err := store.Rooms.Get(eventName)
		if err != nil {
			return false, err
		}
		if room == nil {
			return false, nil
		}
		return oracle.CanAccessRoom(ctx, room, req.SubscriberID)
	}))

	n.StreamRoles.AllowWrite(Fixed(PolicyNone))
	n.StreamRoles.AllowRead(Fixed(PolicyLogged))
}

// NotifyAll emits the event cluster-wide to every subscriber.
func (n *Notifications) NotifyAll(eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyAll", eventName, args)
	}
	n.StreamAll.Emit(eventName, args...)
}

// NotifyLogged emits the event cluster-wide to authenticated subscribers.
func (n *Notifications) NotifyLogged(eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyLogged", eventName, args)
	}
	n.StreamLogged.Emit(eventName, args...)
}

// NotifyRoom emits a room event cluster-wide.
func (n *Notifications) NotifyRoom(room, eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyRoom", room, eventName, args)
	}
	n.StreamRoom.Emit(room+"/"+eventName, args...)
}

// NotifyUser emits a user event cluster-wide; only the sessions of that user
// receive it.
func (n *Notifications) NotifyUser(userID, eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyUser", userID, eventName, args)
	}
	n.StreamUser.Emit(userID+"/"+eventName, args...)
}

// NotifyAllInThisInstance delivers to subscribers of this instance only.
func (n *Notifications) NotifyAllInThisInstance(eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyAllInThisInstance", eventName, args)
	}
	n.StreamAll.EmitLocal(eventName, args...)
}

// NotifyLoggedInThisInstance delivers to authenticated subscribers of this
// instance only.
func (n *Notifications) NotifyLoggedInThisInstance(eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyLoggedInThisInstance", eventName, args)
	}
	n.StreamLogged.EmitLocal(eventName, args...)
}

// NotifyRoomInThisInstance delivers a room event on this instance only.
func (n *Notifications) NotifyRoomInThisInstance(room, eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyRoomInThisInstance", room, eventName, args)
	}
	n.StreamRoom.EmitLocal(room+"/"+eventName, args...)
}

// NotifyUserInThisInstance delivers a user event on this instance only.
func (n *Notifications) NotifyUserInThisInstance(userID, eventName string, args ...interface{}) {
	if n.debug {
		logs.Info.Println("notifyUserInThisInstance", userID, eventName, args)
	}
	n.StreamUser.EmitLocal(userID+"/"+eventName, args...)
}

// ProgressUpdated reports import progress. The importers channel does not
// retransmit: progress ticks stay on the originating instance.
func (n *Notifications) ProgressUpdated(progress ImportProgress) {
	n.StreamImporters.Emit("progress", progress)
}

// livechatTokenMatch checks that the room is a livechat room owned by the
// visitor with the given token.
func livechatTokenMatch(rid, token string) (bool, error) {
	room, err := store.Rooms.Get(rid)
	if err != nil {
		return false, err
	}
	return room != nil && room.Type == types.RoomTypeLivechat &&
		room.Visitor != nil && room.Visitor.Token == token, nil
}

// messageRoomID extracts the room id from a room message payload.
func messageRoomID(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	msg, ok := args[0].(map[string]interface{})
	if !ok {
		return ""
	}
	rid, _ := msg["rid"].(string)
	return rid
}

func firstString(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}
