package repository

import (
	"context"
	"errors"
	"fmt"

	"eventmigrate/backend/internal/models"
)

var ErrDuplicateOrder = errors.New("order code already exists")

func (t *Tx) EnsureCheckinList(ctx context.Context, eventID int64, name string) (models.CheckinList, error) {
	out := models.CheckinList{EventID: eventID, Name: name}
	err := t.tx.QueryRow(ctx, `
INSERT INTO checkin_lists (event_id, name, all_products) VALUES ($1, $2, true)
ON CONFLICT (event_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, all_products;`, eventID, name).Scan(&out.ID, &out.AllProducts)
	return out, err
}

func (t *Tx) OrderExists(ctx context.Context, eventID int64, code string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE event_id = $1 AND code = $2)`, eventID, code).Scan(&exists)
	return exists, err
}

// CreateOrder writes the order with all of its positions, fees, address,
// check-ins, answers and payment. Position AddonTo numbers are resolved to
// the ids of the parent positions, so parents must precede their add-ons.
func (t *Tx) CreateOrder(ctx context.Context, eventID int64, draft models.OrderDraft) (models.Order, error) {
	order := draft.Order
	order.EventID = eventID
	err := t.tx.QueryRow(ctx, `
INSERT INTO orders (event_id, code, status, require_approval, email, phone, locale, datetime, total, meta_info)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at;`,
		eventID,
		order.Code,
		order.Status,
		order.RequireApproval,
		nullString(order.Email),
		nullString(order.Phone),
		order.Locale,
		order.Datetime,
		order.Total,
		nullJSON(order.MetaInfo),
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order, fmt.Errorf("%w: %s", ErrDuplicateOrder, order.Code)
		}
		return order, err
	}

	positionIDs := make(map[int]int64, len(draft.Positions))
	for _, p := range draft.Positions {
		var addonTo *int64
		if p.AddonTo != nil {
			parentID, ok := positionIDs[*p.AddonTo]
			if !ok {
				return order, fmt.Errorf("position %d: parent position %d not written yet", p.Position, *p.AddonTo)
			}
			addonTo = &parentID
		}
		var positionID int64
		err := t.tx.QueryRow(ctx, `
INSERT INTO order_positions (
	order_id, positionid, item_id, variation_id, price, tax_rule_id, attendee_name, attendee_email,
	company, secret, addon_to, canceled
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id;`,
			order.ID,
			p.Position,
			p.ItemID,
			p.VariationID,
			p.Price,
			p.TaxRuleID,
			nullString(p.AttendeeName),
			nullString(p.AttendeeEmail),
			nullString(p.Company),
			nullString(p.Secret),
			addonTo,
			p.Canceled,
		).Scan(&positionID)
		if err != nil {
			return order, fmt.Errorf("position %d: %w", p.Position, err)
		}
		positionIDs[p.Position] = positionID

		if p.Checkin != nil {
			if _, err := t.tx.Exec(ctx, `
INSERT INTO checkins (position_id, list_id, datetime) VALUES ($1, $2, $3);`,
				positionID, p.Checkin.ListID, p.Checkin.Datetime); err != nil {
				return order, fmt.Errorf("check-in of position %d: %w", p.Position, err)
			}
		}
		for _, a := range p.Answers {
			optionIDs := a.OptionIDs
			if optionIDs == nil {
				optionIDs = []int64{}
			}
			if _, err := t.tx.Exec(ctx, `
INSERT INTO question_answers (position_id, question_id, answer, option_ids, file) VALUES ($1, $2, $3, $4, $5);`,
				positionID, a.QuestionID, a.Answer, optionIDs, nullString(a.File)); err != nil {
				return order, fmt.Errorf("answer to question %d: %w", a.QuestionID, err)
			}
		}
	}

	for _, f := range draft.Fees {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO order_fees (order_id, fee_type, value, description, internal_type, tax_rule_id, canceled)
VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			order.ID, f.FeeType, f.Value, f.Description, nullString(f.InternalType), f.TaxRuleID, f.Canceled); err != nil {
			return order, fmt.Errorf("fee: %w", err)
		}
	}

	if addr := draft.InvoiceAddress; addr != nil {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO invoice_addresses (order_id, company, name, street, zipcode, city, country)
VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			order.ID, nullString(addr.Company), addr.Name, addr.Street, addr.Zipcode, addr.City, nullString(addr.Country)); err != nil {
			return order, fmt.Errorf("invoice address: %w", err)
		}
	}

	if pay := draft.Payment; pay != nil {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO order_payments (order_id, amount, provider, state, payment_date) VALUES ($1, $2, $3, $4, $5);`,
			order.ID, pay.Amount, pay.Provider, pay.State, pay.PaymentDate); err != nil {
			return order, fmt.Errorf("payment: %w", err)
		}
	}
	return order, nil
}

// OrderSummary is a compact read model used by tooling and tests.
type OrderSummary struct {
	Order     models.Order
	Positions int
	Fees      int
	Checkins  int
	Answers   int
	Paid      bool
}

func (t *Tx) GetOrderSummary(ctx context.Context, eventID int64, code string) (OrderSummary, error) {
	var out OrderSummary
	o := &out.Order
	var email, phone *string
	err := t.tx.QueryRow(ctx, `
SELECT o.id, o.event_id, o.code, o.status, o.require_approval, o.email, o.phone, o.locale, o.datetime, o.total, o.created_at,
	(SELECT count(*) FROM order_positions p WHERE p.order_id = o.id),
	(SELECT count(*) FROM order_fees f WHERE f.order_id = o.id),
	(SELECT count(*) FROM checkins c JOIN order_positions p ON p.id = c.position_id WHERE p.order_id = o.id),
	(SELECT count(*) FROM question_answers a JOIN order_positions p ON p.id = a.position_id WHERE p.order_id = o.id),
	EXISTS (SELECT 1 FROM order_payments pay WHERE pay.order_id = o.id)
FROM orders o
WHERE o.event_id = $1 AND o.code = $2;`, eventID, code).Scan(
		&o.ID, &o.EventID, &o.Code, &o.Status, &o.RequireApproval, &email, &phone, &o.Locale, &o.Datetime, &o.Total, &o.CreatedAt,
		&out.Positions, &out.Fees, &out.Checkins, &out.Answers, &out.Paid,
	)
	if err != nil {
		return out, notFound(err)
	}
	if email != nil {
		o.Email = *email
	}
	if phone != nil {
		o.Phone = *phone
	}
	return out, nil
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
