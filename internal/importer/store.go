package importer

import (
	"context"

	"eventmigrate/backend/internal/models"
)

// Store opens the all-or-nothing unit of work for one event import.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) (Tx, error)

func (f StoreFunc) Begin(ctx context.Context) (Tx, error) {
	return f(ctx)
}

// Tx is the transactional view of the target system used by the mappers.
// Save* methods insert when the ID is zero and update otherwise; an update
// of a missing row reports models.ErrNotFound.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	EnsureOrganizer(ctx context.Context, slug string) (models.Organizer, error)
	UpsertEvent(ctx context.Context, event models.Event) (models.Event, error)
	SetEventSettings(ctx context.Context, eventID int64, settings map[string]interface{}) error
	GetOrCreateMetaProperty(ctx context.Context, organizerID int64, name string) (models.MetaProperty, error)
	SetEventMetaValue(ctx context.Context, eventID, propertyID int64, value string) error

	LookupMarker(ctx context.Context, eventID int64, kind, externalID string) (int64, bool, error)
	RecordMarker(ctx context.Context, eventID int64, kind, externalID string, targetID int64) error

	SaveTaxRule(ctx context.Context, rule models.TaxRule) (models.TaxRule, error)
	SaveItemCategory(ctx context.Context, category models.ItemCategory) (models.ItemCategory, error)
	SaveItem(ctx context.Context, item models.Item) (models.Item, error)
	SaveItemVariation(ctx context.Context, variation models.ItemVariation) (models.ItemVariation, error)
	SaveQuota(ctx context.Context, quota models.Quota) (models.Quota, error)
	SetItemAddon(ctx context.Context, addon models.ItemAddon) error
	ListAdmissionItemIDs(ctx context.Context, eventID int64) ([]int64, error)
	HideItemsWithoutVoucher(ctx context.Context, eventID int64, itemIDs []int64) error

	UpsertQuestion(ctx context.Context, question models.Question) (models.Question, error)
	UpsertQuestionOption(ctx context.Context, option models.QuestionOption) (models.QuestionOption, error)
	DeleteQuestionOptionsExcept(ctx context.Context, questionID int64, keep []string) (int64, error)
	UpsertVoucher(ctx context.Context, voucher models.Voucher) (models.Voucher, error)

	EnsureCheckinList(ctx context.Context, eventID int64, name string) (models.CheckinList, error)
	OrderExists(ctx context.Context, eventID int64, code string) (bool, error)
	CreateOrder(ctx context.Context, eventID int64, draft models.OrderDraft) (models.Order, error)
}

// Marker kinds bind a remote resource to the target row created for it.
const (
	KindTicketCategory      = "ticketCategory"
	KindTicketCategoryQuota = "ticketCategoryQuota"
	KindShopQuota           = "shopQuota"
	KindProductDefinition   = "productDefinition"
	KindProductOption       = "productOption"
	KindProductQuota        = "productQuota"
	KindProductOptionQuota  = "productOptionQuota"
	KindCodeDefinitionQuota = "codeDefinitionQuota"
	KindTaxRule             = "taxRule"
	KindItemCategory        = "itemCategory"
)

// External ids of singleton markers.
const (
	shopExternalID           = "shop"
	addonCategoryExternalID  = "addons"
	optionCategoryExternalID = "options"
)
