package source

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is the remote event record returned by event/{id}.
type Event struct {
	ID                   int64    `json:"id"`
	Identifier           string   `json:"identifier"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Language             string   `json:"language"`
	Timezone             string   `json:"timezone"`
	Country              string   `json:"country"`
	SelectedDate         string   `json:"selectedDate"`
	SelectedEndDate      string   `json:"selectedEndDate"`
	Longitude            *float64 `json:"longitude"`
	Latitude             *float64 `json:"latitude"`
	Location             string   `json:"location"`
	Street               string   `json:"street"`
	Street2              string   `json:"street2"`
	ZipCode              string   `json:"zipCode"`
	City                 string   `json:"city"`
	LocationDescription  string   `json:"locationDescription"`
	PublishSearchEngines bool     `json:"publishSearchEngines"`
	HideTime             bool     `json:"hideTime"`
	OrganizerEmail       string   `json:"organizerEmail"`
	InternalReference    string   `json:"internalReference"`
	OnlineType           string   `json:"onlineType"`
	Accessibility        string   `json:"accessibility"`
	Type                 string   `json:"type"`
	TwitterHashtag       string   `json:"twitterHashtag"`
	Banner               string   `json:"banner"`
	Logo                 string   `json:"logo"`
}

// TicketShop holds the sales configuration of an event.
type TicketShop struct {
	Currency             string   `json:"currency"`
	Commercial           bool     `json:"commercial"`
	SalesTax             *float64 `json:"salesTax"`
	SalesStart           string   `json:"salesStartDate"`
	SalesEnd             string   `json:"salesEndDate"`
	MaxTickets           *int     `json:"maxTickets"`
	ShowAvailableTickets bool     `json:"showAvailableTickets"`
	TermsURL             string   `json:"termsUrl"`
	PrivacyURL           string   `json:"privacyUrl"`
}

// TicketCategory is an admission ticket type.
type TicketCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Available   *int   `json:"available"`
	Sold        int    `json:"sold"`
	Reserved    int    `json:"reserved"`
	SaleStart   string `json:"saleStart"`
	SaleEnd     string `json:"saleEnd"`
	MinPerOrder *int   `json:"minPerOrder"`
	MaxPerOrder *int   `json:"maxPerOrder"`
	Active      bool   `json:"active"`
}

// Product types. Everything that is not a payment option is treated as an
// add-on product.
const (
	ProductTypePayment = "PAYMENT"
)

// ProductDefinition is a non-admission product sold alongside tickets.
type ProductDefinition struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Active      bool            `json:"active"`
	Options     []ProductOption `json:"options"`
}

type ProductOption struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available *int   `json:"available"`
	Sold      int    `json:"sold"`
}

// Custom field types as reported by the source platform.
const (
	FieldString    = "STRING"
	FieldEmail     = "EMAIL"
	FieldURL       = "URL"
	FieldText      = "TEXT"
	FieldDate      = "DATE"
	FieldDateTime  = "DATETIME"
	FieldRadio     = "RADIO"
	FieldDropdown  = "DROPDOWN"
	FieldGender    = "GENDER"
	FieldCheckbox  = "CHECKBOX"
	FieldPhoto     = "PHOTO"
	FieldFile      = "FILE"
	FieldPhone     = "PHONE"
	FieldCountry   = "COUNTRY"
	FieldSeparator = "SEPARATOR"
	FieldProduct   = "PRODUCT"
	FieldLegal     = "LEGAL"
)

// UserDataField is a custom question definition.
type UserDataField struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	Type      string            `json:"type"`
	Mandatory bool              `json:"mandatory"`
	HelpText  string            `json:"helpText"`
	Options   []UserDataOption  `json:"options"`
	Extra     map[string]string `json:"extra,omitempty"`
}

type UserDataOption struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// UserDataValue is a filled-in custom field attached to a ticket or payment.
type UserDataValue struct {
	UserDataID int64    `json:"userDataId"`
	Type       string   `json:"type"`
	Value      string   `json:"value"`
	OptionID   *int64   `json:"optionId"`
	Values     []string `json:"values"`
	FileURL    string   `json:"fileUrl"`
}

// Code definition discount types.
const (
	CodeTypePercent  = "PERCENT"
	CodeTypeAbsolute = "ABSOLUTE"
	CodeTypeCategory = "CATEGORY"
)

// CodeDefinition groups discount codes with a shared behavior.
type CodeDefinition struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	DiscountType      string  `json:"discountType"`
	Value             int64   `json:"value"`
	TicketCategoryIDs []int64 `json:"ticketCategoryIds"`
	MaxUsage          *int    `json:"maxUsage"`
	ValidUntil        string  `json:"validUntil"`
}

type Code struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	UsageCount int    `json:"usageCount"`
	MaxUsage   *int   `json:"maxUsage"`
}

// Payment statuses.
const (
	PaymentNew        = "new"
	PaymentAuthorized = "authorized"
	PaymentPaid       = "paid"
	PaymentDisbursed  = "disbursed"
	PaymentCancelled  = "cancelled"
)

// Payment is one purchase on the source platform.
type Payment struct {
	ID          int64           `json:"id"`
	Identifier  string          `json:"identifier"`
	Status      string          `json:"status"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Language    string          `json:"language"`
	Email       string          `json:"email"`
	PaymentType string          `json:"paymentType"`
	CreatedAt   string          `json:"creationTime"`
	UpdatedAt   string          `json:"lastUpdate"`
	UserData    []UserDataValue `json:"userData"`

	// Raw keeps the record exactly as received for preservation on the order.
	Raw json.RawMessage `json:"-"`
}

// PurchasedProduct is a product line on a payment or ticket.
type PurchasedProduct struct {
	ID                  int64  `json:"id"`
	ProductDefinitionID int64  `json:"productDefinitionId"`
	OptionID            *int64 `json:"optionId"`
	Price               int64  `json:"price"`
	Quantity            int    `json:"quantity"`
}

// Ticket statuses.
const (
	TicketActive    = "active"
	TicketCancelled = "cancelled"
)

type Ticket struct {
	ID               int64           `json:"id"`
	Identifier       string          `json:"identifier"`
	TicketCategoryID int64           `json:"ticketCategoryId"`
	ParticipantID    *int64          `json:"participantId"`
	Status           string          `json:"status"`
	OriginalPrice    int64           `json:"originalPrice"`
	DiscountAmount   int64           `json:"discountAmount"`
	FirstName        string          `json:"firstName"`
	LastName         string          `json:"lastName"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Company          string          `json:"company"`
	Street           string          `json:"street"`
	ZipCode          string          `json:"zipCode"`
	City             string          `json:"city"`
	Country          string          `json:"country"`
	CheckedIn        bool            `json:"checkedIn"`
	CheckInDate      string          `json:"checkInDate"`
	UserData         []UserDataValue `json:"userData"`
}

// HasBuyerAddress reports whether the ticket carries a complete postal
// address usable as invoice address.
func (t Ticket) HasBuyerAddress() bool {
	return strings.TrimSpace(t.Street) != "" &&
		strings.TrimSpace(t.ZipCode) != "" &&
		strings.TrimSpace(t.City) != "" &&
		(strings.TrimSpace(t.LastName) != "" || strings.TrimSpace(t.Company) != "")
}

// Participant statuses.
const (
	ParticipantActive    = "ACTIVE"
	ParticipantPending   = "PENDING"
	ParticipantOnHold    = "ON_HOLD"
	ParticipantCancelled = "CANCELLED"
	ParticipantDeclined  = "DECLINED"
)

type Participant struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// EventSummary is an entry of user/{id}/events?resultType=full.
type EventSummary struct {
	ID           int64  `json:"id"`
	Identifier   string `json:"identifier"`
	Title        string `json:"title"`
	SelectedDate string `json:"selectedDate"`
	Status       string `json:"status"`
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses a remote timestamp. Values with an explicit offset keep
// it; naive values are interpreted in loc. Blank input yields nil.
func ParseTime(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", value)
}
