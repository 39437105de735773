package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"eventmigrate/backend/internal/models"
)

type markerKey struct {
	kind       string
	externalID string
}

// Resolver maps (kind, external id) pairs of one event to target ids. Hits
// are cached for the lifetime of the event import.
type Resolver struct {
	tx      Tx
	eventID int64
	cache   map[markerKey]int64
}

func NewResolver(tx Tx, eventID int64) *Resolver {
	return &Resolver{tx: tx, eventID: eventID, cache: make(map[markerKey]int64)}
}

// Resolve returns the target id recorded for the pair, if any.
func (r *Resolver) Resolve(ctx context.Context, kind, externalID string) (int64, bool, error) {
	key := markerKey{kind: kind, externalID: externalID}
	if id, ok := r.cache[key]; ok {
		return id, true, nil
	}
	id, found, err := r.tx.LookupMarker(ctx, r.eventID, kind, externalID)
	if err != nil || !found {
		return 0, false, err
	}
	r.cache[key] = id
	return id, true, nil
}

// Record persists the marker after the target row has been saved.
func (r *Resolver) Record(ctx context.Context, kind, externalID string, targetID int64) error {
	key := markerKey{kind: kind, externalID: externalID}
	if id, ok := r.cache[key]; ok && id == targetID {
		return nil
	}
	if err := r.tx.RecordMarker(ctx, r.eventID, kind, externalID, targetID); err != nil {
		return err
	}
	r.cache[key] = targetID
	return nil
}

// Require is Resolve for references that must already be mapped.
func (r *Resolver) Require(ctx context.Context, kind, externalID string) (int64, error) {
	id, found, err := r.Resolve(ctx, kind, externalID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, &IdentityResolutionError{Kind: kind, ExternalID: externalID}
	}
	return id, nil
}

func extID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// saveMarked runs the resolve, save, record sequence shared by all marker
// backed entities. save receives the resolved id (zero for a new row) and
// returns the id of the saved row. A marker that points at a deleted row is
// healed by saving a new one.
func saveMarked(ctx context.Context, res *Resolver, kind, externalID string, save func(id int64) (int64, error)) (int64, error) {
	id, _, err := res.Resolve(ctx, kind, externalID)
	if err != nil {
		return 0, err
	}
	saved, err := save(id)
	if err != nil && id != 0 && errors.Is(err, models.ErrNotFound) {
		saved, err = save(0)
	}
	if err != nil {
		return 0, fmt.Errorf("save %s %s: %w", kind, externalID, err)
	}
	if err := res.Record(ctx, kind, externalID, saved); err != nil {
		return 0, fmt.Errorf("record %s %s: %w", kind, externalID, err)
	}
	return saved, nil
}
