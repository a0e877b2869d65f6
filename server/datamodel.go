/******************************************************************************
 *
 *  Description :
 *
 *    Wire protocol structures.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"net/http"
	"time"
)

// MsgClientSub is a request to subscribe to a channel event or to a named
// publication.
type MsgClientSub struct {
	// Message id, echoed in the reply.
	Id string `json:"id,omitempty"`
	// Name of the channel to subscribe to.
	Channel string `json:"channel,omitempty"`
	// Event filter: the exact event name or room id the subscriber wants.
	Event string `json:"event,omitempty"`
	// Name of a reactive publication to subscribe to instead of a channel.
	Publication string `json:"pub,omitempty"`
	// Extra auth data, e.g. a livechat visitor token.
	Token string `json:"token,omitempty"`
}

// MsgClientUnsub is a request to drop a subscription.
type MsgClientUnsub struct {
	Id          string `json:"id,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Event       string `json:"event,omitempty"`
	Publication string `json:"pub,omitempty"`
}

// MsgClientWrite is a client-originated write to a channel.
type MsgClientWrite struct {
	Id      string        `json:"id,omitempty"`
	Channel string        `json:"channel"`
	Event   string        `json:"event"`
	Args    []interface{} `json:"args,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// MsgClientMethod is a method call: login, presence updates etc.
type MsgClientMethod struct {
	Id     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ClientComMessage is a message received from a client.
type ClientComMessage struct {
	Sub    *MsgClientSub    `json:"sub,omitempty"`
	Unsub  *MsgClientUnsub  `json:"unsub,omitempty"`
	Write  *MsgClientWrite  `json:"write,omitempty"`
	Method *MsgClientMethod `json:"method,omitempty"`

	// Message timestamp, set by the server on receipt.
	timestamp time.Time
}

// MsgServerCtrl is a server control message: response codes to client requests.
type MsgServerCtrl struct {
	Id     string      `json:"id,omitempty"`
	Code   int         `json:"code"`
	Text   string      `json:"text,omitempty"`
	Params interface{} `json:"params,omitempty"`

	Timestamp time.Time `json:"ts"`
}

// MsgServerEvent is a channel event delivered to a subscriber.
type MsgServerEvent struct {
	Channel string        `json:"channel"`
	Event   string        `json:"event"`
	Args    []interface{} `json:"args,omitempty"`
}

// MsgServerPub is a reactive publication record message: an add/change/remove
// of a record in a published collection.
type MsgServerPub struct {
	Collection string      `json:"coll"`
	Action     string      `json:"action"`
	Id         string      `json:"rec"`
	Record     interface{} `json:"fields,omitempty"`
}

// ServerComMessage is a message sent to a client.
type ServerComMessage struct {
	Ctrl  *MsgServerCtrl  `json:"ctrl,omitempty"`
	Event *MsgServerEvent `json:"event,omitempty"`
	Pub   *MsgServerPub   `json:"pub,omitempty"`
}

// Ctrl constructors.

// NoErr means the request was processed.
func NoErr(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusOK, Text: "ok", Timestamp: ts}}
}

// NoErrParams means the request was processed; attaches params to the reply.
func NoErrParams(id string, ts time.Time, params interface{}) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusOK, Text: "ok", Params: params, Timestamp: ts}}
}

// ErrMalformed means the request could not be parsed.
func ErrMalformed(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusBadRequest, Text: "malformed", Timestamp: ts}}
}

// ErrPermissionDenied means the request was rejected by an access rule.
func ErrPermissionDenied(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusForbidden, Text: "permission denied", Timestamp: ts}}
}

// ErrAuthFailed means the login attempt was rejected.
func ErrAuthFailed(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusUnauthorized, Text: "authentication failed", Timestamp: ts}}
}

// ErrNotFound means the addressed channel, publication or method is unknown.
func ErrNotFound(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id: id, Code: http.StatusNotFound, Text: "not found", Timestamp: ts}}
}
