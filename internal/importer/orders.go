package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/money"
	"eventmigrate/backend/internal/source"
)

func (r *eventRun) importOrders(ctx context.Context) error {
	list, err := r.tx.EnsureCheckinList(ctx, r.event.ID, r.defaults.CheckinListName)
	if err != nil {
		return fmt.Errorf("check-in list: %w", err)
	}
	paymentIDs, err := r.remote.PaymentIDs(ctx, r.remoteID)
	if err != nil {
		return err
	}

	created, skipped := 0, 0
	for _, paymentID := range paymentIDs {
		payment, err := r.remote.Payment(ctx, paymentID)
		if err != nil {
			return err
		}
		code := OrderCode(payment.Identifier)
		if code == "" {
			code = fmt.Sprintf("P%d", payment.ID)
		}
		exists, err := r.tx.OrderExists(ctx, r.event.ID, code)
		if err != nil {
			return fmt.Errorf("check order %s: %w", code, err)
		}
		if exists {
			r.logger.Debug("import_order_skipped", "payment_id", payment.ID, "code", code)
			skipped++
			continue
		}

		draft, err := r.assembleOrder(ctx, payment, code, list.ID)
		if err != nil {
			return fmt.Errorf("payment %d: %w", payment.ID, err)
		}
		if _, err := r.tx.CreateOrder(ctx, r.event.ID, draft); err != nil {
			return fmt.Errorf("save order %s: %w", code, err)
		}
		created++
	}
	r.logger.Info("import_orders_done", "payments", len(paymentIDs), "created", created, "skipped", skipped)
	return nil
}

func (r *eventRun) assembleOrder(ctx context.Context, payment source.Payment, code string, checkinListID int64) (models.OrderDraft, error) {
	status, known := OrderStatus(payment.Status)
	if !known {
		r.logger.Warn("import_payment_status_unknown", "payment_id", payment.ID, "status", payment.Status)
	}
	currency := r.currency
	if c := strings.TrimSpace(payment.Currency); c != "" {
		currency = strings.ToUpper(c)
	}

	created := r.optionalTime("creationTime", payment.CreatedAt)
	if created == nil {
		now := r.now()
		created = &now
	}
	draft := models.OrderDraft{
		Order: models.Order{
			EventID:  r.event.ID,
			Code:     code,
			Status:   status,
			Email:    strings.TrimSpace(payment.Email),
			Locale:   firstNonEmpty(payment.Language, r.locale),
			Datetime: *created,
			MetaInfo: payment.Raw,
		},
	}

	tickets, err := r.remote.PaymentTickets(ctx, payment.ID)
	if err != nil {
		return draft, err
	}
	onHold := false
	admissionTotal, admissionCanceled := 0, 0
	participantEmail := ""
	for _, ticket := range tickets {
		itemID, err := r.resolver.Require(ctx, KindTicketCategory, extID(ticket.TicketCategoryID))
		if err != nil {
			return draft, err
		}
		var participant *source.Participant
		if ticket.ParticipantID != nil {
			p, err := r.remote.Participant(ctx, *ticket.ParticipantID)
			if err != nil {
				return draft, err
			}
			participant = &p
			if participantEmail == "" {
				participantEmail = strings.TrimSpace(p.Email)
			}
		}
		participantStatus := ""
		if participant != nil {
			participantStatus = strings.ToUpper(strings.TrimSpace(participant.Status))
		}
		if participantStatus == source.ParticipantOnHold {
			onHold = true
		}
		canceled := strings.EqualFold(ticket.Status, source.TicketCancelled) ||
			participantStatus == source.ParticipantCancelled ||
			participantStatus == source.ParticipantDeclined

		position := models.OrderPosition{
			Position:      len(draft.Positions) + 1,
			ItemID:        itemID,
			Price:         money.ToAmount(currency, ticket.OriginalPrice-ticket.DiscountAmount),
			TaxRuleID:     r.taxRuleID,
			AttendeeName:  attendeeName(ticket, participant),
			AttendeeEmail: firstNonEmpty(ticket.Email, participantEmailOf(participant)),
			Company:       strings.TrimSpace(ticket.Company),
			Secret:        strings.TrimSpace(ticket.Identifier),
			Canceled:      canceled,
		}
		if ticket.CheckedIn && !canceled && checkinAllowed(participantStatus) {
			at := r.optionalTime("checkInDate", ticket.CheckInDate)
			if at == nil {
				at = &draft.Order.Datetime
			}
			position.Checkin = &models.Checkin{ListID: checkinListID, Datetime: *at}
		}
		answers, err := r.buildAnswers(ctx, ticket.UserData)
		if err != nil {
			return draft, err
		}
		position.Answers = answers

		if draft.InvoiceAddress == nil && ticket.HasBuyerAddress() {
			draft.InvoiceAddress = &models.InvoiceAddress{
				Company: strings.TrimSpace(ticket.Company),
				Name:    strings.TrimSpace(ticket.FirstName + " " + ticket.LastName),
				Street:  strings.TrimSpace(ticket.Street),
				Zipcode: strings.TrimSpace(ticket.ZipCode),
				City:    strings.TrimSpace(ticket.City),
				Country: strings.TrimSpace(ticket.Country),
			}
			if draft.Order.Email == "" {
				draft.Order.Email = strings.TrimSpace(ticket.Email)
			}
			if draft.Order.Phone == "" {
				draft.Order.Phone = strings.TrimSpace(ticket.Phone)
			}
		}

		draft.Positions = append(draft.Positions, position)
		parent := position.Position
		admissionTotal++
		if canceled {
			admissionCanceled++
		}

		products, err := r.remote.TicketProducts(ctx, ticket.ID)
		if err != nil {
			return draft, err
		}
		if err := r.appendProductPositions(ctx, &draft, products, currency, &parent); err != nil {
			return draft, err
		}
	}

	if draft.Order.Email == "" {
		draft.Order.Email = participantEmail
	}

	products, err := r.remote.PaymentProducts(ctx, payment.ID)
	if err != nil {
		return draft, err
	}
	if err := r.appendProductPositions(ctx, &draft, products, currency, nil); err != nil {
		return draft, err
	}

	// Answers given once per payment are stored on the first position.
	if len(payment.UserData) > 0 && len(draft.Positions) > 0 {
		answers, err := r.buildAnswers(ctx, payment.UserData)
		if err != nil {
			return draft, err
		}
		draft.Positions[0].Answers = mergeAnswers(draft.Positions[0].Answers, answers)
	}

	if admissionTotal > 0 && admissionCanceled == admissionTotal {
		draft.Order.Status = models.OrderStatusCanceled
	}
	if onHold {
		draft.Order.Status = models.OrderStatusPending
		draft.Order.RequireApproval = true
	}

	Reconcile(&draft, money.ToAmount(currency, payment.Amount), r.taxRuleID)

	if draft.Order.Status == models.OrderStatusPaid {
		draft.Payment = &models.OrderPayment{
			Amount:      draft.Order.Total,
			Provider:    models.PaymentProviderManual,
			State:       models.PaymentStateConfirmed,
			PaymentDate: r.paymentDate(payment, draft.Order.Datetime),
		}
	}
	return draft, nil
}

// appendProductPositions adds one position per purchased unit. Products of a
// ticket hang off the ticket position but stay active when the ticket is
// canceled.
func (r *eventRun) appendProductPositions(ctx context.Context, draft *models.OrderDraft, products []source.PurchasedProduct, currency string, addonTo *int) error {
	for _, product := range products {
		itemID, err := r.resolver.Require(ctx, KindProductDefinition, extID(product.ProductDefinitionID))
		if err != nil {
			return err
		}
		var variationID *int64
		if product.OptionID != nil {
			id, found, err := r.resolver.Resolve(ctx, KindProductOption, extID(*product.OptionID))
			if err != nil {
				return err
			}
			if found {
				variationID = &id
			}
		}
		quantity := product.Quantity
		if quantity < 1 {
			quantity = 1
		}
		for i := 0; i < quantity; i++ {
			position := models.OrderPosition{
				Position:    len(draft.Positions) + 1,
				ItemID:      itemID,
				VariationID: variationID,
				Price:       money.ToAmount(currency, product.Price),
				TaxRuleID:   r.taxRuleID,
			}
			if addonTo != nil {
				parent := *addonTo
				position.AddonTo = &parent
			}
			draft.Positions = append(draft.Positions, position)
		}
	}
	return nil
}

func (r *eventRun) paymentDate(payment source.Payment, fallback time.Time) *time.Time {
	if t := r.optionalTime("lastUpdate", payment.UpdatedAt); t != nil {
		return t
	}
	return &fallback
}

func checkinAllowed(participantStatus string) bool {
	switch participantStatus {
	case "", source.ParticipantActive, source.ParticipantPending:
		return true
	}
	return false
}

func attendeeName(ticket source.Ticket, participant *source.Participant) string {
	name := strings.TrimSpace(strings.TrimSpace(ticket.FirstName) + " " + strings.TrimSpace(ticket.LastName))
	if name == "" && participant != nil {
		name = strings.TrimSpace(strings.TrimSpace(participant.FirstName) + " " + strings.TrimSpace(participant.LastName))
	}
	return name
}

func participantEmailOf(p *source.Participant) string {
	if p == nil {
		return ""
	}
	return p.Email
}

// mergeAnswers appends extra answers for questions not answered yet.
func mergeAnswers(existing, extra []models.QuestionAnswer) []models.QuestionAnswer {
	seen := make(map[int64]bool, len(existing))
	for _, a := range existing {
		seen[a.QuestionID] = true
	}
	for _, a := range extra {
		if !seen[a.QuestionID] {
			existing = append(existing, a)
			seen[a.QuestionID] = true
		}
	}
	return existing
}
