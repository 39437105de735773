package importer

import (
	"context"
	"fmt"
	"strings"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/money"
	"eventmigrate/backend/internal/source"

	"github.com/shopspring/decimal"
)

func (r *eventRun) importVouchers(ctx context.Context) error {
	definitions, err := r.remote.CodeDefinitions(ctx, r.remoteID)
	if err != nil {
		return err
	}
	total := 0
	for _, def := range definitions {
		n, err := r.importCodeDefinition(ctx, def)
		if err != nil {
			return err
		}
		total += n
	}
	r.logger.Info("import_vouchers_done", "definitions", len(definitions), "vouchers", total)
	return nil
}

func (r *eventRun) importCodeDefinition(ctx context.Context, def source.CodeDefinition) (int, error) {
	itemIDs := make([]int64, 0, len(def.TicketCategoryIDs))
	for _, categoryID := range def.TicketCategoryIDs {
		itemID, err := r.resolver.Require(ctx, KindTicketCategory, extID(categoryID))
		if err != nil {
			return 0, fmt.Errorf("code definition %d: %w", def.ID, err)
		}
		itemIDs = append(itemIDs, itemID)
	}

	base := models.Voucher{
		EventID: r.event.ID,
		Tag:     strings.TrimSpace(def.Name),
	}
	switch len(itemIDs) {
	case 0:
	case 1:
		base.ItemID = &itemIDs[0]
	default:
		quota := models.Quota{
			EventID: r.event.ID,
			Name:    strings.TrimSpace("Vouchers " + def.Name),
			Members: itemMembers(itemIDs),
		}
		quotaID, err := r.saveQuota(ctx, KindCodeDefinitionQuota, extID(def.ID), quota)
		if err != nil {
			return 0, err
		}
		base.QuotaID = &quotaID
	}

	mode, value, unlock, err := r.discount(def)
	if err != nil {
		return 0, err
	}
	base.PriceMode = mode
	base.Value = value
	base.ShowHiddenItems = unlock
	base.ValidUntil = r.optionalTime("validUntil", def.ValidUntil)

	if unlock && len(itemIDs) > 0 {
		if err := r.tx.HideItemsWithoutVoucher(ctx, r.event.ID, itemIDs); err != nil {
			return 0, fmt.Errorf("hide items of code definition %d: %w", def.ID, err)
		}
	}

	codes, err := r.remote.Codes(ctx, def.ID)
	if err != nil {
		return 0, err
	}
	saved := 0
	for _, code := range codes {
		voucherCode := strings.TrimSpace(code.Code)
		if voucherCode == "" {
			continue
		}
		voucher := base
		voucher.Code = voucherCode
		voucher.Redeemed = code.UsageCount
		voucher.MaxUsages = r.maxUsages(code.MaxUsage, def.MaxUsage)
		if _, err := r.tx.UpsertVoucher(ctx, voucher); err != nil {
			return 0, fmt.Errorf("save voucher %s: %w", voucherCode, err)
		}
		saved++
	}
	return saved, nil
}

// discount classifies a code definition. unlock is true for codes that only
// grant access to hidden items.
func (r *eventRun) discount(def source.CodeDefinition) (mode string, value decimal.Decimal, unlock bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(def.DiscountType)) {
	case source.CodeTypePercent:
		return models.PriceModePercent, decimal.NewFromInt(def.Value), false, nil
	case source.CodeTypeAbsolute:
		return models.PriceModeSubtract, money.ToAmount(r.currency, def.Value), false, nil
	case source.CodeTypeCategory:
		return models.PriceModeNone, decimal.Zero, true, nil
	default:
		return "", decimal.Zero, false, fmt.Errorf("code definition %d: unknown discount type %q", def.ID, def.DiscountType)
	}
}

func (r *eventRun) maxUsages(values ...*int) int {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return r.defaults.VoucherMaxUsage
}
