package importer

import (
	"strings"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"

	"github.com/shopspring/decimal"
)

// OrderStatus maps a remote payment status to a target order status. ok is
// false for statuses this importer does not know.
func OrderStatus(paymentStatus string) (status string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(paymentStatus)) {
	case source.PaymentNew, source.PaymentAuthorized:
		return models.OrderStatusPending, true
	case source.PaymentPaid, source.PaymentDisbursed:
		return models.OrderStatusPaid, true
	case source.PaymentCancelled:
		return models.OrderStatusCanceled, true
	default:
		return models.OrderStatusPending, false
	}
}

// OrderCode derives the order code from a payment identifier: the part
// after the last dash, upper-cased, at most 16 characters from its end.
func OrderCode(identifier string) string {
	code := strings.TrimSpace(identifier)
	if i := strings.LastIndex(code, "-"); i >= 0 && i < len(code)-1 {
		code = code[i+1:]
	}
	code = strings.ToUpper(code)
	if len(code) > 16 {
		code = code[len(code)-16:]
	}
	return code
}

// Reconcile closes the gap between the assembled draft and the remote total
// with a single fee and sets the order total. This applies to canceled
// orders too, so every imported order matches its payment. It returns the
// synthesized fee, if any.
func Reconcile(draft *models.OrderDraft, remoteTotal decimal.Decimal, taxRuleID *int64) *models.OrderFee {
	var fee *models.OrderFee
	if diff := remoteTotal.Sub(draft.ComputeTotal()); !diff.IsZero() {
		draft.Fees = append(draft.Fees, models.OrderFee{
			FeeType:      models.FeeTypeOther,
			Value:        diff,
			Description:  "Reconciliation",
			InternalType: models.FeeInternalReconciliation,
			TaxRuleID:    taxRuleID,
		})
		fee = &draft.Fees[len(draft.Fees)-1]
	}
	draft.Order.Total = draft.ComputeTotal()
	return fee
}
