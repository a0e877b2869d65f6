/******************************************************************************
 *
 *  Description :
 *
 *    Channel access rules: fixed policies and dynamic predicates.
 *    All predicate failures are converted to denials (fail closed).
 *
 *****************************************************************************/

package main

import (
	"context"
	"errors"

	"github.com/notifex/notifex/server/auth"
	"github.com/notifex/notifex/server/logs"
)

// ErrAccessDenied is returned when a subscribe or write attempt is rejected.
// Rejections carry no detail: a predicate error and a plain "no" look the
// same to the caller.
var ErrAccessDenied = errors.New("access denied")

// Policy is a fixed access rule.
type Policy int

const (
	// PolicyNone denies everyone.
	PolicyNone Policy = iota
	// PolicyAll allows any subscriber.
	PolicyAll
	// PolicyLogged allows any authenticated subscriber.
	PolicyLogged
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyAll:
		return "all"
	case PolicyLogged:
		return "logged"
	}
	return "invalid"
}

// PredicateFn decides access dynamically. It may perform I/O against external
// stores. The returned value is interpreted by the caller: a boolean grants
// or denies; on the emit path any other non-nil value substitutes the
// delivered payload for that subscriber.
type PredicateFn func(ctx context.Context, r auth.Request, eventName string, args []interface{}) (interface{}, error)

type ruleKind int

const (
	ruleUnset ruleKind = iota
	ruleFixed
	ruleDynamic
)

// Rule is a tagged access rule: either a fixed Policy or a dynamic predicate.
// The zero value is "unset"; an unset read or write rule denies everyone,
// an unset emit rule falls back to the channel's read rule.
type Rule struct {
	kind   ruleKind
	policy Policy
	fn     PredicateFn
}

// Fixed makes a rule out of a fixed policy.
func Fixed(p Policy) Rule {
	return Rule{kind: ruleFixed, policy: p}
}

// Dynamic makes a rule out of a predicate.
func Dynamic(fn PredicateFn) Rule {
	return Rule{kind: ruleDynamic, fn: fn}
}

func (r Rule) isSet() bool {
	return r.kind != ruleUnset
}

// check evaluates the rule as a boolean. Predicate errors and non-boolean
// results deny.
func (r Rule) check(ctx context.Context, req auth.Request, eventName string, args []interface{}) bool {
	switch r.kind {
	case ruleFixed:
		switch r.policy {
		case PolicyAll:
			return true
		case PolicyLogged:
			return req.Logged()
		}
		return false

	case ruleDynamic:
		verdict, err := r.fn(ctx, req, eventName, args)
		if err != nil {
			logs.Warn.Println("access: predicate failed for", eventName, "-", err)
			return false
		}
		allowed, _ := verdict.(bool)
		return allowed

	default:
		return false
	}
}

// checkEmit evaluates the rule on the delivery path. Returns whether the event
// may be delivered and the args to deliver: the original ones, or a
// substituted payload when the predicate returned a non-boolean value.
func (r Rule) checkEmit(ctx context.Context, req auth.Request, eventName string, args []interface{}) (bool, []interface{}) {
	switch r.kind {
	case ruleFixed:
		switch r.policy {
		case PolicyAll:
			return true, args
		case PolicyLogged:
			return req.Logged(), args
		}
		return false, nil

	case ruleDynamic:
		verdict, err := r.fn(ctx, req, eventName, args)
		if err != nil {
			logs.Warn.Println("access: emit predicate failed for", eventName, "-", err)
			return false, nil
		}
		switch v := verdict.(type) {
		case nil:
			return false, nil
		case bool:
			if !v {
				return false, nil
			}
			return true, args
		default:
			// Per-recipient payload substitution.
			return true, []interface{}{v}
		}

	default:
		return false, nil
	}
}
