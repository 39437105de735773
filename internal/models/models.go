package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalizedString maps a locale code to text, e.g. {"en": "Conference"}.
type LocalizedString map[string]string

// In returns the text for locale or, failing that, any non-empty value.
func (s LocalizedString) In(locale string) string {
	if v := s[locale]; v != "" {
		return v
	}
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

type Organizer struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

type Event struct {
	ID          int64           `json:"id"`
	OrganizerID int64           `json:"organizerId"`
	Slug        string          `json:"slug"`
	Name        LocalizedString `json:"name"`
	Location    LocalizedString `json:"location"`
	Currency    string          `json:"currency"`
	DateFrom    time.Time       `json:"dateFrom"`
	DateTo      *time.Time      `json:"dateTo,omitempty"`
	PresaleFrom *time.Time      `json:"presaleStart,omitempty"`
	PresaleTo   *time.Time      `json:"presaleEnd,omitempty"`
	GeoLat      *float64        `json:"geoLat,omitempty"`
	GeoLon      *float64        `json:"geoLon,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type TaxRule struct {
	ID      int64           `json:"id"`
	EventID int64           `json:"eventId"`
	Name    LocalizedString `json:"name"`
	Rate    decimal.Decimal `json:"rate"`
}

type ItemCategory struct {
	ID       int64           `json:"id"`
	EventID  int64           `json:"eventId"`
	Name     LocalizedString `json:"name"`
	IsAddon  bool            `json:"isAddon"`
	Position int             `json:"position"`
}

type Item struct {
	ID                 int64           `json:"id"`
	EventID            int64           `json:"eventId"`
	CategoryID         *int64          `json:"categoryId,omitempty"`
	Name               LocalizedString `json:"name"`
	Description        LocalizedString `json:"description"`
	DefaultPrice       decimal.Decimal `json:"defaultPrice"`
	TaxRuleID          *int64          `json:"taxRuleId,omitempty"`
	Admission          bool            `json:"admission"`
	Active             bool            `json:"active"`
	AvailableFrom      *time.Time      `json:"availableFrom,omitempty"`
	AvailableUntil     *time.Time      `json:"availableUntil,omitempty"`
	MinPerOrder        *int            `json:"minPerOrder,omitempty"`
	MaxPerOrder        *int            `json:"maxPerOrder,omitempty"`
	HideWithoutVoucher bool            `json:"hideWithoutVoucher"`
	Position           int             `json:"position"`
}

type ItemVariation struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"itemId"`
	Value        LocalizedString `json:"value"`
	DefaultPrice decimal.Decimal `json:"defaultPrice"`
	Active       bool            `json:"active"`
	Position     int             `json:"position"`
}

// QuotaMember is one item or item variation counted against a quota.
type QuotaMember struct {
	ItemID      int64  `json:"itemId"`
	VariationID *int64 `json:"variationId,omitempty"`
}

// Quota is a capacity pool. A nil Size means unlimited.
type Quota struct {
	ID      int64         `json:"id"`
	EventID int64         `json:"eventId"`
	Name    string        `json:"name"`
	Size    *int          `json:"size"`
	Members []QuotaMember `json:"members"`
}

// ItemAddon lets buyers of BaseItemID pick products from AddonCategoryID.
type ItemAddon struct {
	BaseItemID      int64 `json:"baseItemId"`
	AddonCategoryID int64 `json:"addonCategoryId"`
	MinCount        int   `json:"minCount"`
	MaxCount        int   `json:"maxCount"`
}

// Question answer types.
const (
	QuestionTypeString   = "S"
	QuestionTypeText     = "T"
	QuestionTypeDate     = "D"
	QuestionTypeDateTime = "W"
	QuestionTypeChoice   = "C"
	QuestionTypeBoolean  = "B"
	QuestionTypeFile     = "F"
	QuestionTypePhone    = "TEL"
	QuestionTypeCountry  = "CC"
)

type Question struct {
	ID                int64           `json:"id"`
	EventID           int64           `json:"eventId"`
	Identifier        string          `json:"identifier"`
	Question          LocalizedString `json:"question"`
	HelpText          LocalizedString `json:"helpText"`
	Type              string          `json:"type"`
	Required          bool            `json:"required"`
	Position          int             `json:"position"`
	ValidFilePortrait bool            `json:"validFilePortrait"`
	ItemIDs           []int64         `json:"itemIds"`
}

type QuestionOption struct {
	ID         int64           `json:"id"`
	QuestionID int64           `json:"questionId"`
	Identifier string          `json:"identifier"`
	Answer     LocalizedString `json:"answer"`
	Position   int             `json:"position"`
}

// Voucher price modes.
const (
	PriceModeNone     = "none"
	PriceModePercent  = "percent"
	PriceModeSubtract = "subtract"
)

// Voucher is a discount or access code. ItemID and QuotaID are mutually
// exclusive.
type Voucher struct {
	ID              int64           `json:"id"`
	EventID         int64           `json:"eventId"`
	Code            string          `json:"code"`
	MaxUsages       int             `json:"maxUsages"`
	Redeemed        int             `json:"redeemed"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
	PriceMode       string          `json:"priceMode"`
	Value           decimal.Decimal `json:"value"`
	ItemID          *int64          `json:"itemId,omitempty"`
	QuotaID         *int64          `json:"quotaId,omitempty"`
	ShowHiddenItems bool            `json:"showHiddenItems"`
	Tag             string          `json:"tag,omitempty"`
}

type MetaProperty struct {
	ID          int64  `json:"id"`
	OrganizerID int64  `json:"organizerId"`
	Name        string `json:"name"`
}

type CheckinList struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"eventId"`
	Name        string `json:"name"`
	AllProducts bool   `json:"allProducts"`
}
