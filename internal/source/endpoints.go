package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrAccountNotFound  = errors.New("no source account matches this e-mail address")
	ErrAccountAmbiguous = errors.New("several source accounts match this e-mail address")
)

// FindEventIDs lists every event visible to the API key.
func (c *Client) FindEventIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := c.FetchInto(ctx, "event/find", "ids", &ids)
	return ids, err
}

// FindUserID resolves the account that owns the given login e-mail.
func (c *Client) FindUserID(ctx context.Context, email string) (int64, error) {
	var ids []int64
	if err := c.FetchInto(ctx, "user/find?username="+url.QueryEscape(strings.TrimSpace(email)), "ids", &ids); err != nil {
		return 0, err
	}
	switch len(ids) {
	case 0:
		return 0, ErrAccountNotFound
	case 1:
		return ids[0], nil
	default:
		return 0, ErrAccountAmbiguous
	}
}

// UserEvents lists the full event records of an account across all pages.
func (c *Client) UserEvents(ctx context.Context, userID int64) ([]EventSummary, error) {
	return FetchAll[EventSummary](ctx, c, fmt.Sprintf("user/%d/events?resultType=full", userID), "events")
}

func (c *Client) Event(ctx context.Context, id int64) (Event, error) {
	var out Event
	err := c.FetchInto(ctx, fmt.Sprintf("event/%d", id), "event", &out)
	return out, err
}

func (c *Client) TicketShop(ctx context.Context, eventID int64) (TicketShop, error) {
	var out TicketShop
	err := c.FetchInto(ctx, fmt.Sprintf("event/%d/ticketShop", eventID), "ticketShop", &out)
	return out, err
}

// TicketCategories fetches the id list and then every category record.
func (c *Client) TicketCategories(ctx context.Context, eventID int64) ([]TicketCategory, error) {
	var ids []int64
	if err := c.FetchInto(ctx, fmt.Sprintf("event/%d/ticketCategories", eventID), "ticketCategories", &ids); err != nil {
		return nil, err
	}
	out := make([]TicketCategory, 0, len(ids))
	for _, id := range ids {
		var category TicketCategory
		if err := c.FetchInto(ctx, fmt.Sprintf("ticketCategory/%d", id), "ticketCategory", &category); err != nil {
			return nil, err
		}
		out = append(out, category)
	}
	return out, nil
}

func (c *Client) ProductDefinitions(ctx context.Context, eventID int64) ([]ProductDefinition, error) {
	var ids []int64
	if err := c.FetchInto(ctx, fmt.Sprintf("event/%d/productDefinitions", eventID), "productDefinitions", &ids); err != nil {
		return nil, err
	}
	out := make([]ProductDefinition, 0, len(ids))
	for _, id := range ids {
		var product ProductDefinition
		if err := c.FetchInto(ctx, fmt.Sprintf("productDefinition/%d", id), "productDefinition", &product); err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, nil
}

func (c *Client) UserDataFields(ctx context.Context, eventID int64) ([]UserDataField, error) {
	var out []UserDataField
	err := c.FetchInto(ctx, fmt.Sprintf("event/%d/userData", eventID), "userData", &out)
	return out, err
}

func (c *Client) CodeDefinitions(ctx context.Context, eventID int64) ([]CodeDefinition, error) {
	var ids []int64
	if err := c.FetchInto(ctx, fmt.Sprintf("event/%d/codeDefinitions", eventID), "codeDefinitions", &ids); err != nil {
		return nil, err
	}
	out := make([]CodeDefinition, 0, len(ids))
	for _, id := range ids {
		var def CodeDefinition
		if err := c.FetchInto(ctx, fmt.Sprintf("codeDefinition/%d", id), "codeDefinition", &def); err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// Codes drains the paginated code list of one code definition.
func (c *Client) Codes(ctx context.Context, definitionID int64) ([]Code, error) {
	return FetchAll[Code](ctx, c, fmt.Sprintf("codeDefinition/%d/codes", definitionID), "codes")
}

func (c *Client) PaymentIDs(ctx context.Context, eventID int64) ([]int64, error) {
	var ids []int64
	err := c.FetchInto(ctx, fmt.Sprintf("event/%d/payments", eventID), "payments", &ids)
	return ids, err
}

// Payment fetches a payment and keeps its raw JSON alongside the typed view.
func (c *Client) Payment(ctx context.Context, id int64) (Payment, error) {
	var out Payment
	var raw json.RawMessage
	path := fmt.Sprintf("payment/%d", id)
	if err := c.FetchInto(ctx, path, "payment", &raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &RemoteError{Path: path, Err: fmt.Errorf("decode payment: %w", err)}
	}
	out.Raw = raw
	return out, nil
}

func (c *Client) PaymentProducts(ctx context.Context, paymentID int64) ([]PurchasedProduct, error) {
	var out []PurchasedProduct
	err := c.FetchInto(ctx, fmt.Sprintf("payment/%d/products", paymentID), "products", &out)
	return out, err
}

// PaymentTickets fetches the ticket ids of a payment and then every ticket.
func (c *Client) PaymentTickets(ctx context.Context, paymentID int64) ([]Ticket, error) {
	var ids []int64
	if err := c.FetchInto(ctx, fmt.Sprintf("payment/%d/tickets", paymentID), "tickets", &ids); err != nil {
		return nil, err
	}
	out := make([]Ticket, 0, len(ids))
	for _, id := range ids {
		var ticket Ticket
		if err := c.FetchInto(ctx, fmt.Sprintf("ticket/%d", id), "ticket", &ticket); err != nil {
			return nil, err
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (c *Client) TicketProducts(ctx context.Context, ticketID int64) ([]PurchasedProduct, error) {
	var out []PurchasedProduct
	err := c.FetchInto(ctx, fmt.Sprintf("ticket/%d/products", ticketID), "products", &out)
	return out, err
}

func (c *Client) Participant(ctx context.Context, id int64) (Participant, error) {
	var out Participant
	err := c.FetchInto(ctx, fmt.Sprintf("participant/%d", id), "participant", &out)
	return out, err
}
