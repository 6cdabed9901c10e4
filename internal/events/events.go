// Package events bridges mod manager state changes to a front end.
//
// Registry mutations are published as Events. The add flow's overwrite
// question is a request/response exchange correlated by mod name.
package events

import (
	"context"

	"github.com/roach88/modloader/internal/mod"
)

// Kind distinguishes registry changes.
type Kind string

const (
	// KindInsertUpdate carries the full record after an insert or update.
	KindInsertUpdate Kind = "insert_update"

	// KindDelete carries only the id of a removed record.
	KindDelete Kind = "delete"
)

// Event is one registry change.
type Event struct {
	Kind   Kind        `json:"kind" yaml:"kind"`
	ID     uint64      `json:"id" yaml:"id"`
	Record *mod.Record `json:"record,omitempty" yaml:"record,omitempty"`
}

// InsertUpdate builds the event published after a record is written.
func InsertUpdate(rec mod.Record) Event {
	return Event{Kind: KindInsertUpdate, ID: rec.ID, Record: &rec}
}

// Delete builds the event published after a record is removed.
func Delete(id uint64) Event {
	return Event{Kind: KindDelete, ID: id}
}

// Publisher receives registry change events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// Confirmer asks the user whether an existing mod should be overwritten.
// A false answer with a nil error means declined.
type Confirmer interface {
	ConfirmOverwrite(ctx context.Context, modName string) (bool, error)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, modName string) (bool, error)

// ConfirmOverwrite calls f.
func (f ConfirmFunc) ConfirmOverwrite(ctx context.Context, modName string) (bool, error) {
	return f(ctx, modName)
}

// Always returns a Confirmer that answers every request with overwrite.
func Always(overwrite bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) {
		return overwrite, nil
	})
}
