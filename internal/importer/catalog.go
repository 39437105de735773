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

func (r *eventRun) importCatalog(ctx context.Context) error {
	categories, err := r.remote.TicketCategories(ctx, r.remoteID)
	if err != nil {
		return err
	}
	admission := make([]int64, 0, len(categories))
	for i, category := range categories {
		itemID, err := r.importTicketCategory(ctx, category, i)
		if err != nil {
			return err
		}
		admission = append(admission, itemID)
	}

	if shop := r.shop; shop.MaxTickets != nil && len(admission) > 0 {
		quota := models.Quota{
			EventID: r.event.ID,
			Name:    "Tickets",
			Size:    intPtr(*shop.MaxTickets),
			Members: itemMembers(admission),
		}
		if _, err := r.saveQuota(ctx, KindShopQuota, shopExternalID, quota); err != nil {
			return err
		}
	}

	products, err := r.remote.ProductDefinitions(ctx, r.remoteID)
	if err != nil {
		return err
	}
	addonItems := 0
	var addonCategoryID int64
	for i, product := range products {
		isAddon := !strings.EqualFold(product.Type, source.ProductTypePayment)
		categoryID, err := r.productCategory(ctx, isAddon)
		if err != nil {
			return err
		}
		if err := r.importProduct(ctx, product, categoryID, i); err != nil {
			return err
		}
		if isAddon {
			addonItems++
			addonCategoryID = categoryID
		}
	}

	if addonItems > 0 {
		baseItems, err := r.tx.ListAdmissionItemIDs(ctx, r.event.ID)
		if err != nil {
			return fmt.Errorf("list admission items: %w", err)
		}
		for _, itemID := range baseItems {
			addon := models.ItemAddon{
				BaseItemID:      itemID,
				AddonCategoryID: addonCategoryID,
				MinCount:        r.defaults.AddonMinCount,
				MaxCount:        addonItems,
			}
			if err := r.tx.SetItemAddon(ctx, addon); err != nil {
				return fmt.Errorf("link add-ons to item %d: %w", itemID, err)
			}
		}
	}

	r.logger.Info("import_catalog_done", "ticket_categories", len(categories), "products", len(products), "addons", addonItems)
	return nil
}

func (r *eventRun) importTicketCategory(ctx context.Context, category source.TicketCategory, position int) (int64, error) {
	item := models.Item{
		EventID:        r.event.ID,
		Name:           models.LocalizedString{r.locale: strings.TrimSpace(category.Name)},
		Description:    r.richText(category.Description),
		DefaultPrice:   money.ToAmount(r.currency, category.Price),
		TaxRuleID:      r.taxRuleID,
		Admission:      true,
		Active:         category.Active,
		AvailableFrom:  r.optionalTime("saleStart", category.SaleStart),
		AvailableUntil: r.optionalTime("saleEnd", category.SaleEnd),
		MinPerOrder:    category.MinPerOrder,
		MaxPerOrder:    category.MaxPerOrder,
		Position:       position,
	}
	itemID, err := r.saveItem(ctx, KindTicketCategory, extID(category.ID), item)
	if err != nil {
		return 0, err
	}

	// Reserved tickets are not counted; only available and sold ones are.
	quota := models.Quota{
		EventID: r.event.ID,
		Name:    strings.TrimSpace(category.Name),
		Size:    capacity(category.Available, category.Sold),
		Members: itemMembers([]int64{itemID}),
	}
	if _, err := r.saveQuota(ctx, KindTicketCategoryQuota, extID(category.ID), quota); err != nil {
		return 0, err
	}
	return itemID, nil
}

func (r *eventRun) importProduct(ctx context.Context, product source.ProductDefinition, categoryID int64, position int) error {
	title := strings.TrimSpace(product.Title)
	item := models.Item{
		EventID:      r.event.ID,
		CategoryID:   &categoryID,
		Name:         models.LocalizedString{r.locale: title},
		Description:  r.richText(product.Description),
		DefaultPrice: decimal.Zero,
		TaxRuleID:    r.taxRuleID,
		Active:       product.Active,
		Position:     position,
	}
	if len(product.Options) == 1 {
		option := product.Options[0]
		item.Name = models.LocalizedString{r.locale: singleOptionName(title, option.Name)}
		item.DefaultPrice = money.ToAmount(r.currency, option.Price)
	}
	itemID, err := r.saveItem(ctx, KindProductDefinition, extID(product.ID), item)
	if err != nil {
		return err
	}

	switch len(product.Options) {
	case 0:
		return nil
	case 1:
		option := product.Options[0]
		quota := models.Quota{
			EventID: r.event.ID,
			Name:    item.Name.In(r.locale),
			Size:    capacity(option.Available, option.Sold),
			Members: itemMembers([]int64{itemID}),
		}
		_, err := r.saveQuota(ctx, KindProductQuota, extID(product.ID), quota)
		return err
	}

	for i, option := range product.Options {
		variation := models.ItemVariation{
			ItemID:       itemID,
			Value:        models.LocalizedString{r.locale: strings.TrimSpace(option.Name)},
			DefaultPrice: money.ToAmount(r.currency, option.Price),
			Active:       true,
			Position:     i,
		}
		variationID, err := saveMarked(ctx, r.resolver, KindProductOption, extID(option.ID), func(id int64) (int64, error) {
			variation.ID = id
			saved, err := r.tx.SaveItemVariation(ctx, variation)
			return saved.ID, err
		})
		if err != nil {
			return err
		}
		quota := models.Quota{
			EventID: r.event.ID,
			Name:    strings.TrimSpace(title + " " + option.Name),
			Size:    capacity(option.Available, option.Sold),
			Members: []models.QuotaMember{{ItemID: itemID, VariationID: &variationID}},
		}
		if _, err := r.saveQuota(ctx, KindProductOptionQuota, extID(option.ID), quota); err != nil {
			return err
		}
	}
	return nil
}

// productCategory returns the add-on category or the category for
// additional order options, creating it on first use.
func (r *eventRun) productCategory(ctx context.Context, addon bool) (int64, error) {
	externalID := optionCategoryExternalID
	category := models.ItemCategory{
		EventID:  r.event.ID,
		Name:     models.LocalizedString{r.locale: categoryName(r.locale, false)},
		Position: 2,
	}
	if addon {
		externalID = addonCategoryExternalID
		category.Name = models.LocalizedString{r.locale: categoryName(r.locale, true)}
		category.IsAddon = true
		category.Position = 1
	}
	if id, found, err := r.resolver.Resolve(ctx, KindItemCategory, externalID); err != nil || found {
		return id, err
	}
	return saveMarked(ctx, r.resolver, KindItemCategory, externalID, func(id int64) (int64, error) {
		category.ID = id
		saved, err := r.tx.SaveItemCategory(ctx, category)
		return saved.ID, err
	})
}

func categoryName(locale string, addon bool) string {
	switch {
	case locale == "de" && addon:
		return "Zusatzprodukte"
	case locale == "de":
		return "Zusätzliche Bestelloptionen"
	case addon:
		return "Add-ons"
	default:
		return "Additional order options"
	}
}

func (r *eventRun) saveItem(ctx context.Context, kind, externalID string, item models.Item) (int64, error) {
	return saveMarked(ctx, r.resolver, kind, externalID, func(id int64) (int64, error) {
		item.ID = id
		saved, err := r.tx.SaveItem(ctx, item)
		return saved.ID, err
	})
}

func (r *eventRun) saveQuota(ctx context.Context, kind, externalID string, quota models.Quota) (int64, error) {
	return saveMarked(ctx, r.resolver, kind, externalID, func(id int64) (int64, error) {
		quota.ID = id
		saved, err := r.tx.SaveQuota(ctx, quota)
		return saved.ID, err
	})
}

func (r *eventRun) richText(raw string) models.LocalizedString {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.LocalizedString{}
	}
	return models.LocalizedString{r.locale: SanitizeHTML(raw)}
}

// singleOptionName names a product that has exactly one option.
func singleOptionName(title, option string) string {
	option = strings.TrimSpace(option)
	if option == "" || strings.EqualFold(option, title) {
		return title
	}
	return title + " " + option
}

// capacity is available plus sold, or nil when the remote side is uncapped.
func capacity(available *int, sold int) *int {
	if available == nil {
		return nil
	}
	return intPtr(*available + sold)
}

func itemMembers(itemIDs []int64) []models.QuotaMember {
	out := make([]models.QuotaMember, 0, len(itemIDs))
	for _, id := range itemIDs {
		out = append(out, models.QuotaMember{ItemID: id})
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
