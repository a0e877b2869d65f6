/******************************************************************************
 *
 *  Description :
 *
 *  Dispatch of client method calls: login and presence updates.
 *
 *****************************************************************************/

package main

import (
	"context"
	"encoding/json"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
)

// method handles {method} requests.
func (s *Session) method(msg *ClientComMessage) {
	switch msg.Method.Name {
	case "login":
		s.login(msg)
	case "setUserStatus":
		s.setUserStatus(msg)
	case "UserPresence:setDefaultStatus":
		s.setDefaultStatus(msg)
	case "UserPresence:online":
		s.setConnectionStatus(msg, "online")
	case "UserPresence:away":
		s.setConnectionStatus(msg, "away")
	default:
		logs.Warn.Println("s.method: unknown method", msg.Method.Name, s.sid)
		s.queueOut(ErrNotFound(msg.Method.Id, msg.timestamp))
	}
}

// login authenticates the session. On success the session is bound to the
// subscriber id returned by the identity service.
func (s *Session) login(msg *ClientComMessage) {
	if globals.identity == nil {
		s.queueOut(ErrAuthFailed(msg.Method.Id, msg.timestamp))
		return
	}

	var req auth.LoginRequest
	if len(msg.Method.Params) > 0 {
		if err := json.Unmarshal(msg.Method.Params, &req); err != nil {
			s.queueOut(ErrMalformed(msg.Method.Id, msg.timestamp))
			return
		}
	}

	result, err := globals.identity.Login(context.Background(), req)
	if err != nil || result == nil {
		logs.Warn.Println("s.login: failed", err, s.sid)
		s.queueOut(ErrAuthFailed(msg.Method.Id, msg.timestamp))
		return
	}

	s.setUid(result.UID)

	if globals.presence != nil {
		if err := globals.presence.NewConnection(context.Background(), result.UID, s.sid); err != nil {
			logs.Warn.Println("s.login: presence:", err, s.sid)
		}
	}

	s.queueOut(NoErrParams(msg.Method.Id, msg.timestamp, result))
}

// setUserStatus handles the setUserStatus method: [status, statusText].
func (s *Session) setUserStatus(msg *ClientComMessage) {
	uid := s.getUid()
	if uid == "" {
		s.queueOut(ErrAuthFailed(msg.Method.Id, msg.timestamp))
		return
	}
	if globals.presence == nil {
		s.queueOut(ErrNotFound(msg.Method.Id, msg.timestamp))
		return
	}

	var params []string
	if err := json.Unmarshal(msg.Method.Params, &params); err != nil || len(params) == 0 {
		s.queueOut(ErrMalformed(msg.Method.Id, msg.timestamp))
		return
	}

	statusText := ""
	if len(params) > 1 {
		statusText = params[1]
	}

	if err := globals.presence.SetStatus(context.Background(), uid, params[0], statusText); err != nil {
		logs.Warn.Println("s.setUserStatus:", err, s.sid)
		s.queueOut(ErrPermissionDenied(msg.Method.Id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.Method.Id, msg.timestamp))
}

// setDefaultStatus handles UserPresence:setDefaultStatus: [status].
func (s *Session) setDefaultStatus(msg *ClientComMessage) {
	uid := s.getUid()
	if uid == "" {
		s.queueOut(ErrAuthFailed(msg.Method.Id, msg.timestamp))
		return
	}
	if globals.presence == nil {
		s.queueOut(ErrNotFound(msg.Method.Id, msg.timestamp))
		return
	}

	var params []string
	if err := json.Unmarshal(msg.Method.Params, &params); err != nil || len(params) == 0 {
		s.queueOut(ErrMalformed(msg.Method.Id, msg.timestamp))
		return
	}

	if err := globals.presence.SetStatus(context.Background(), uid, params[0], ""); err != nil {
		logs.Warn.Println("s.setDefaultStatus:", err, s.sid)
		s.queueOut(ErrPermissionDenied(msg.Method.Id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.Method.Id, msg.timestamp))
}

// setConnectionStatus handles UserPresence:online and UserPresence:away.
func (s *Session) setConnectionStatus(msg *ClientComMessage, status string) {
	uid := s.getUid()
	if uid == "" {
		s.queueOut(ErrAuthFailed(msg.Method.Id, msg.timestamp))
		return
	}
	if globals.presence == nil {
		s.queueOut(ErrNotFound(msg.Method.Id, msg.timestamp))
		return
	}

	if err := globals.presence.SetConnectionStatus(context.Background(), uid, status, s.sid); err != nil {
		logs.Warn.Println("s.setConnectionStatus:", err, s.sid)
		s.queueOut(ErrPermissionDenied(msg.Method.Id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.Method.Id, msg.timestamp))
}
