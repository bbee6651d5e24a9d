// Package owner defines the opaque identifier shared by the event dispatcher
// and the reactive core to bulk-tear-down everything registered under one
// lifecycle scope (a mounted UI component, a modal, a route).
package owner

import "github.com/google/uuid"

// GroupID is an opaque handle passed by external collaborators (form engine,
// modal engine, router) when registering handlers or effects, and later used
// to tear them all down in one call.
//
// The zero value, Nil, means "no owner group" — handlers and effects created
// without one are torn down individually, never in bulk.
type GroupID uuid.UUID

// Nil is the zero GroupID, meaning "not owned by any group".
var Nil = GroupID{}

// New returns a fresh, process-unique GroupID.
func New() GroupID {
	return GroupID(uuid.New())
}

// String renders the GroupID in canonical UUID form.
func (g GroupID) String() string {
	return uuid.UUID(g).String()
}

// IsNil reports whether g is the zero GroupID.
func (g GroupID) IsNil() bool {
	return g == Nil
}
