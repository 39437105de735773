package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusCanceled = "canceled"
)

const (
	FeeTypeOther = "other"

	// FeeInternalReconciliation tags fees synthesized to match a source total.
	FeeInternalReconciliation = "reconciliation"
)

const (
	PaymentProviderManual = "manual"
	PaymentStateConfirmed = "confirmed"
)

type Order struct {
	ID              int64           `json:"id"`
	EventID         int64           `json:"eventId"`
	Code            string          `json:"code"`
	Status          string          `json:"status"`
	RequireApproval bool            `json:"requireApproval"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Locale          string          `json:"locale"`
	Datetime        time.Time       `json:"datetime"`
	Total           decimal.Decimal `json:"total"`
	MetaInfo        json.RawMessage `json:"metaInfo,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OrderPosition is one purchased item. AddonTo refers to the Position
// number of the parent position inside the same order.
type OrderPosition struct {
	ID            int64           `json:"id"`
	Position      int             `json:"positionid"`
	ItemID        int64           `json:"itemId"`
	VariationID   *int64          `json:"variationId,omitempty"`
	Price         decimal.Decimal `json:"price"`
	TaxRuleID     *int64          `json:"taxRuleId,omitempty"`
	AttendeeName  string          `json:"attendeeName,omitempty"`
	AttendeeEmail string          `json:"attendeeEmail,omitempty"`
	Company       string          `json:"company,omitempty"`
	Secret        string          `json:"secret,omitempty"`
	AddonTo       *int            `json:"addonTo,omitempty"`
	Canceled      bool            `json:"canceled"`

	Answers []QuestionAnswer `json:"answers,omitempty"`
	Checkin *Checkin         `json:"checkin,omitempty"`
}

type OrderFee struct {
	ID           int64           `json:"id"`
	FeeType      string          `json:"feeType"`
	Value        decimal.Decimal `json:"value"`
	Description  string          `json:"description"`
	InternalType string          `json:"internalType,omitempty"`
	TaxRuleID    *int64          `json:"taxRuleId,omitempty"`
	Canceled     bool            `json:"canceled"`
}

type InvoiceAddress struct {
	Company string `json:"company,omitempty"`
	Name    string `json:"name"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

type Checkin struct {
	ListID   int64     `json:"listId"`
	Datetime time.Time `json:"datetime"`
}

// QuestionAnswer is stored per position. File holds the storage URL of an
// uploaded file answer.
type QuestionAnswer struct {
	QuestionID int64   `json:"questionId"`
	Answer     string  `json:"answer"`
	OptionIDs  []int64 `json:"optionIds,omitempty"`
	File       string  `json:"file,omitempty"`
}

type OrderPayment struct {
	Amount      decimal.Decimal `json:"amount"`
	Provider    string          `json:"provider"`
	State       string          `json:"state"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
}

// OrderDraft is a fully assembled order written in one store call.
type OrderDraft struct {
	Order          Order           `json:"order"`
	Positions      []OrderPosition `json:"positions"`
	Fees           []OrderFee      `json:"fees"`
	InvoiceAddress *InvoiceAddress `json:"invoiceAddress,omitempty"`
	Payment        *OrderPayment   `json:"payment,omitempty"`
}

// ComputeTotal sums non-canceled positions and fees.
func (d OrderDraft) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Positions {
		if !p.Canceled {
			total = total.Add(p.Price)
		}
	}
	for _, f := range d.Fees {
		if !f.Canceled {
			total = total.Add(f.Value)
		}
	}
	return total
}
