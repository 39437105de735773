package repository

import (
	"context"
	"database/sql"
	"fmt"

	"eventmigrate/backend/internal/models"
)

func localized(s models.LocalizedString) models.LocalizedString {
	if s == nil {
		return models.LocalizedString{}
	}
	return s
}

func (t *Tx) SaveTaxRule(ctx context.Context, rule models.TaxRule) (models.TaxRule, error) {
	rule.Name = localized(rule.Name)
	if rule.ID == 0 {
		err := t.tx.QueryRow(ctx, `
INSERT INTO tax_rules (event_id, name, rate) VALUES ($1, $2, $3)
RETURNING id;`, rule.EventID, rule.Name, rule.Rate).Scan(&rule.ID)
		return rule, err
	}
	err := t.tx.QueryRow(ctx, `
UPDATE tax_rules SET name = $3, rate = $4
WHERE id = $1 AND event_id = $2
RETURNING id;`, rule.ID, rule.EventID, rule.Name, rule.Rate).Scan(&rule.ID)
	return rule, notFound(err)
}

func (t *Tx) SaveItemCategory(ctx context.Context, category models.ItemCategory) (models.ItemCategory, error) {
	category.Name = localized(category.Name)
	if category.ID == 0 {
		err := t.tx.QueryRow(ctx, `
INSERT INTO item_categories (event_id, name, is_addon, position) VALUES ($1, $2, $3, $4)
RETURNING id;`, category.EventID, category.Name, category.IsAddon, category.Position).Scan(&category.ID)
		return category, err
	}
	err := t.tx.QueryRow(ctx, `
UPDATE item_categories SET name = $3, is_addon = $4, position = $5
WHERE id = $1 AND event_id = $2
RETURNING id;`, category.ID, category.EventID, category.Name, category.IsAddon, category.Position).Scan(&category.ID)
	return category, notFound(err)
}

// SaveItem writes the mapped item fields. An update leaves
// hide_without_voucher alone: it is owned by the voucher import.
func (t *Tx) SaveItem(ctx context.Context, item models.Item) (models.Item, error) {
	item.Name = localized(item.Name)
	item.Description = localized(item.Description)
	args := []interface{}{
		item.EventID,
		item.CategoryID,
		item.Name,
		item.Description,
		item.DefaultPrice,
		item.TaxRuleID,
		item.Admission,
		item.Active,
		item.AvailableFrom,
		item.AvailableUntil,
		item.MinPerOrder,
		item.MaxPerOrder,
		item.Position,
	}
	if item.ID == 0 {
		err := t.tx.QueryRow(ctx, `
INSERT INTO items (
	event_id, category_id, name, description, default_price, tax_rule_id, admission, active,
	available_from, available_until, min_per_order, max_per_order, position, hide_without_voucher
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id;`, append(args, item.HideWithoutVoucher)...).Scan(&item.ID)
		return item, err
	}
	err := t.tx.QueryRow(ctx, `
UPDATE items SET
	category_id = $2,
	name = $3,
	description = $4,
	default_price = $5,
	tax_rule_id = $6,
	admission = $7,
	active = $8,
	available_from = $9,
	available_until = $10,
	min_per_order = $11,
	max_per_order = $12,
	position = $13
WHERE event_id = $1 AND id = $14
RETURNING hide_without_voucher;`, append(args, item.ID)...).Scan(&item.HideWithoutVoucher)
	return item, notFound(err)
}

func (t *Tx) GetItem(ctx context.Context, id int64) (models.Item, error) {
	row := t.tx.QueryRow(ctx, `
SELECT id, event_id, category_id, name, description, default_price, tax_rule_id, admission, active,
	available_from, available_until, min_per_order, max_per_order, hide_without_voucher, position
FROM items WHERE id = $1;`, id)
	var out models.Item
	var categoryID, taxRuleID sql.NullInt64
	var from, until sql.NullTime
	var minPer, maxPer sql.NullInt32
	err := row.Scan(&out.ID, &out.EventID, &categoryID, &out.Name, &out.Description, &out.DefaultPrice, &taxRuleID,
		&out.Admission, &out.Active, &from, &until, &minPer, &maxPer, &out.HideWithoutVoucher, &out.Position)
	if err != nil {
		return out, notFound(err)
	}
	out.CategoryID = nullInt64ToPtr(categoryID)
	out.TaxRuleID = nullInt64ToPtr(taxRuleID)
	out.AvailableFrom = nullTimeToPtr(from)
	out.AvailableUntil = nullTimeToPtr(until)
	out.MinPerOrder = nullInt32ToIntPtr(minPer)
	out.MaxPerOrder = nullInt32ToIntPtr(maxPer)
	return out, nil
}

func (t *Tx) SaveItemVariation(ctx context.Context, variation models.ItemVariation) (models.ItemVariation, error) {
	variation.Value = localized(variation.Value)
	if variation.ID == 0 {
		err := t.tx.QueryRow(ctx, `
INSERT INTO item_variations (item_id, value, default_price, active, position) VALUES ($1, $2, $3, $4, $5)
RETURNING id;`, variation.ItemID, variation.Value, variation.DefaultPrice, variation.Active, variation.Position).Scan(&variation.ID)
		return variation, err
	}
	err := t.tx.QueryRow(ctx, `
UPDATE item_variations SET item_id = $2, value = $3, default_price = $4, active = $5, position = $6
WHERE id = $1
RETURNING id;`, variation.ID, variation.ItemID, variation.Value, variation.DefaultPrice, variation.Active, variation.Position).Scan(&variation.ID)
	return variation, notFound(err)
}

// SaveQuota writes the quota row and replaces its member list.
func (t *Tx) SaveQuota(ctx context.Context, quota models.Quota) (models.Quota, error) {
	if quota.ID == 0 {
		if err := t.tx.QueryRow(ctx, `
INSERT INTO quotas (event_id, name, size) VALUES ($1, $2, $3)
RETURNING id;`, quota.EventID, quota.Name, quota.Size).Scan(&quota.ID); err != nil {
			return quota, err
		}
	} else {
		err := t.tx.QueryRow(ctx, `
UPDATE quotas SET name = $3, size = $4
WHERE id = $1 AND event_id = $2
RETURNING id;`, quota.ID, quota.EventID, quota.Name, quota.Size).Scan(&quota.ID)
		if err != nil {
			return quota, notFound(err)
		}
		if _, err := t.tx.Exec(ctx, `DELETE FROM quota_items WHERE quota_id = $1`, quota.ID); err != nil {
			return quota, err
		}
	}
	for _, member := range quota.Members {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO quota_items (quota_id, item_id, variation_id) VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING;`, quota.ID, member.ItemID, member.VariationID); err != nil {
			return quota, fmt.Errorf("quota member %d: %w", member.ItemID, err)
		}
	}
	return quota, nil
}

func (t *Tx) GetQuota(ctx context.Context, id int64) (models.Quota, error) {
	out := models.Quota{ID: id}
	var size sql.NullInt32
	if err := t.tx.QueryRow(ctx, `SELECT event_id, name, size FROM quotas WHERE id = $1`, id).Scan(&out.EventID, &out.Name, &size); err != nil {
		return out, notFound(err)
	}
	out.Size = nullInt32ToIntPtr(size)
	rows, err := t.tx.Query(ctx, `SELECT item_id, variation_id FROM quota_items WHERE quota_id = $1 ORDER BY item_id, variation_id NULLS FIRST`, id)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var member models.QuotaMember
		var variationID sql.NullInt64
		if err := rows.Scan(&member.ItemID, &variationID); err != nil {
			return out, err
		}
		member.VariationID = nullInt64ToPtr(variationID)
		out.Members = append(out.Members, member)
	}
	return out, rows.Err()
}

func (t *Tx) SetItemAddon(ctx context.Context, addon models.ItemAddon) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO item_addons (base_item_id, addon_category_id, min_count, max_count) VALUES ($1, $2, $3, $4)
ON CONFLICT (base_item_id, addon_category_id) DO UPDATE SET
	min_count = EXCLUDED.min_count,
	max_count = EXCLUDED.max_count;`, addon.BaseItemID, addon.AddonCategoryID, addon.MinCount, addon.MaxCount)
	return err
}

func (t *Tx) ListAdmissionItemIDs(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT id FROM items WHERE event_id = $1 AND admission ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *Tx) HideItemsWithoutVoucher(ctx context.Context, eventID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	tag, err := t.tx.Exec(ctx, `
UPDATE items SET hide_without_voucher = true
WHERE event_id = $1 AND id = ANY($2);`, eventID, itemIDs)
	if err != nil {
		return err
	}
	distinct := map[int64]struct{}{}
	for _, id := range itemIDs {
		distinct[id] = struct{}{}
	}
	if tag.RowsAffected() != int64(len(distinct)) {
		return ErrNotFound
	}
	return nil
}
