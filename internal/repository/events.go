package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eventmigrate/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

func (t *Tx) EnsureOrganizer(ctx context.Context, slug string) (models.Organizer, error) {
	var out models.Organizer
	err := t.tx.QueryRow(ctx, `
INSERT INTO organizers (slug) VALUES ($1)
ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
RETURNING id, slug;`, slug).Scan(&out.ID, &out.Slug)
	return out, err
}

// UpsertEvent creates the event or overwrites the mapped fields of the event
// with the same organizer and slug.
func (t *Tx) UpsertEvent(ctx context.Context, event models.Event) (models.Event, error) {
	name := event.Name
	if name == nil {
		name = models.LocalizedString{}
	}
	location := event.Location
	if location == nil {
		location = models.LocalizedString{}
	}
	row := t.tx.QueryRow(ctx, `
INSERT INTO events (
	organizer_id, slug, name, location, currency, date_from, date_to,
	presale_start, presale_end, geo_lat, geo_lon
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (organizer_id, slug) DO UPDATE SET
	name = EXCLUDED.name,
	location = EXCLUDED.location,
	currency = EXCLUDED.currency,
	date_from = EXCLUDED.date_from,
	date_to = EXCLUDED.date_to,
	presale_start = EXCLUDED.presale_start,
	presale_end = EXCLUDED.presale_end,
	geo_lat = EXCLUDED.geo_lat,
	geo_lon = EXCLUDED.geo_lon,
	updated_at = now()
RETURNING id, created_at, updated_at;`,
		event.OrganizerID,
		event.Slug,
		name,
		location,
		event.Currency,
		event.DateFrom,
		event.DateTo,
		event.PresaleFrom,
		event.PresaleTo,
		event.GeoLat,
		event.GeoLon,
	)
	out := event
	out.Name = name
	out.Location = location
	err := row.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func (t *Tx) GetEvent(ctx context.Context, organizerSlug, eventSlug string) (models.Event, error) {
	row := t.tx.QueryRow(ctx, `
SELECT e.id, e.organizer_id, e.slug, e.name, e.location, e.currency, e.date_from, e.date_to,
	e.presale_start, e.presale_end, e.geo_lat, e.geo_lon, e.created_at, e.updated_at
FROM events e
JOIN organizers o ON o.id = e.organizer_id
WHERE o.slug = $1 AND e.slug = $2;`, organizerSlug, eventSlug)
	var out models.Event
	err := row.Scan(&out.ID, &out.OrganizerID, &out.Slug, &out.Name, &out.Location, &out.Currency, &out.DateFrom, &out.DateTo,
		&out.PresaleFrom, &out.PresaleTo, &out.GeoLat, &out.GeoLon, &out.CreatedAt, &out.UpdatedAt)
	return out, notFound(err)
}

// SetEventSettings merges settings into the event's key/value store.
func (t *Tx) SetEventSettings(ctx context.Context, eventID int64, settings map[string]interface{}) error {
	batch := &pgx.Batch{}
	for key, value := range settings {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode setting %s: %w", key, err)
		}
		batch.Queue(`
INSERT INTO event_settings (event_id, key, value) VALUES ($1, $2, $3)
ON CONFLICT (event_id, key) DO UPDATE SET value = EXCLUDED.value;`, eventID, key, raw)
	}
	if batch.Len() == 0 {
		return nil
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *Tx) EventSettings(ctx context.Context, eventID int64) (map[string]json.RawMessage, error) {
	rows, err := t.tx.Query(ctx, `SELECT key, value FROM event_settings WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, rows.Err()
}

// GetOrCreateMetaProperty is safe against concurrent imports creating the
// same organizer-level property: the losing insert waits for the winner and
// then reads its row.
func (t *Tx) GetOrCreateMetaProperty(ctx context.Context, organizerID int64, name string) (models.MetaProperty, error) {
	out := models.MetaProperty{OrganizerID: organizerID, Name: name}
	err := t.tx.QueryRow(ctx, `
INSERT INTO meta_properties (organizer_id, name) VALUES ($1, $2)
ON CONFLICT (organizer_id, name) DO NOTHING
RETURNING id;`, organizerID, name).Scan(&out.ID)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, err
	}
	err = t.tx.QueryRow(ctx, `SELECT id FROM meta_properties WHERE organizer_id = $1 AND name = $2`, organizerID, name).Scan(&out.ID)
	return out, err
}

func (t *Tx) SetEventMetaValue(ctx context.Context, eventID, propertyID int64, value string) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO event_meta_values (event_id, property_id, value) VALUES ($1, $2, $3)
ON CONFLICT (event_id, property_id) DO UPDATE SET value = EXCLUDED.value;`, eventID, propertyID, value)
	return err
}

func (t *Tx) LookupMarker(ctx context.Context, eventID int64, kind, externalID string) (int64, bool, error) {
	var targetID int64
	err := t.tx.QueryRow(ctx, `
SELECT target_id FROM external_markers
WHERE event_id = $1 AND kind = $2 AND external_id = $3;`, eventID, kind, externalID).Scan(&targetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return targetID, true, nil
}

// RecordMarker binds (event, kind, externalID) to targetID, replacing a
// stale binding.
func (t *Tx) RecordMarker(ctx context.Context, eventID int64, kind, externalID string, targetID int64) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO external_markers (event_id, kind, external_id, target_id) VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, kind, external_id) DO UPDATE SET target_id = EXCLUDED.target_id;`,
		eventID, kind, externalID, targetID)
	return err
}
