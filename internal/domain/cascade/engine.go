package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/record"
)

// errBlocked signals that a blocking issue was appended to the result
// and the traversal must unwind. It is internal control flow: callers
// of the engine see Success=false, never this error.
var errBlocked = errors.New("cascade blocked")

// Ruleset runs per-kind validation. Implemented by internal/domain/rules;
// the engine only sees this surface.
type Ruleset interface {
	ValidateDeletion(ctx context.Context, rec entity.Record) (*ValidationResult, error)
	ValidateRestoration(ctx context.Context, rec entity.Record) (*ValidationResult, error)
}

// nodeKey identifies a visited node. Two kinds could in principle share
// an ID, so the kind is part of the key.
type nodeKey struct {
	kind entity.Kind
	id   id.ID
}

// Engine walks the ownership graph marking and unmarking records. It
// holds no per-call state: every top-level call builds a fresh
// traversal (visited set, options, result) and threads it through the
// recursion, so concurrent calls never share bookkeeping.
//
// The engine does not open transactions. Callers run it inside one
// (see Service); every store access goes through the handles, which
// pick the transaction up from the context.
type Engine struct {
	stores record.Registry
	graph  *graph.Graph
	rules  Ruleset
	now    func() time.Time
}

// NewEngine builds an engine over the given stores, topology and rules.
func NewEngine(stores record.Registry, g *graph.Graph, rules Ruleset) *Engine {
	return &Engine{
		stores: stores,
		graph:  g,
		rules:  rules,
		now:    time.Now,
	}
}

// SetClock overrides the engine's time source. Tests only.
func (e *Engine) SetClock(fn func() time.Time) {
	e.now = fn
}

// handle resolves a kind that must be registered. A miss here is a
// wiring bug, not user input: registries are validated at startup.
func (e *Engine) handle(kind entity.Kind) (record.Handle, error) {
	h, ok := e.stores.Handle(kind)
	if !ok {
		return nil, fmt.Errorf("cascade: no store handle for kind %q", kind)
	}
	return h, nil
}

func (e *Engine) lines(kind entity.Kind) (record.LineStore, error) {
	ls, ok := e.stores.LinesFor(kind)
	if !ok {
		return nil, fmt.Errorf("cascade: no line store for kind %q", kind)
	}
	return ls, nil
}

func requireActor(actor *appctx.Actor) error {
	if actor == nil || id.IsNil(actor.ID) {
		return errors.New("cascade: actor is required for delete attribution")
	}
	return nil
}
