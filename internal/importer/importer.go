package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"
)

// Remote is the subset of the source API client used by the importer.
type Remote interface {
	Event(ctx context.Context, id int64) (source.Event, error)
	TicketShop(ctx context.Context, eventID int64) (source.TicketShop, error)
	TicketCategories(ctx context.Context, eventID int64) ([]source.TicketCategory, error)
	ProductDefinitions(ctx context.Context, eventID int64) ([]source.ProductDefinition, error)
	UserDataFields(ctx context.Context, eventID int64) ([]source.UserDataField, error)
	CodeDefinitions(ctx context.Context, eventID int64) ([]source.CodeDefinition, error)
	Codes(ctx context.Context, definitionID int64) ([]source.Code, error)
	PaymentIDs(ctx context.Context, eventID int64) ([]int64, error)
	Payment(ctx context.Context, id int64) (source.Payment, error)
	PaymentProducts(ctx context.Context, paymentID int64) ([]source.PurchasedProduct, error)
	PaymentTickets(ctx context.Context, paymentID int64) ([]source.Ticket, error)
	TicketProducts(ctx context.Context, ticketID int64) ([]source.PurchasedProduct, error)
	Participant(ctx context.Context, id int64) (source.Participant, error)
	Download(ctx context.Context, rawURL string) ([]byte, string, error)
}

// RemoteFactory builds a Remote authenticated with apiKey.
type RemoteFactory func(apiKey string) (Remote, error)

// Request describes one import invocation. Repeating a request is safe.
type Request struct {
	Organizer    string  `json:"organizer" validate:"required,min=1,max=64"`
	APIKey       string  `json:"apiKey" validate:"required"`
	EventIDs     []int64 `json:"eventIds" validate:"required,min=1,dive,gt=0"`
	WithVouchers bool    `json:"withVouchers"`
	WithOrders   bool    `json:"withOrders"`

	// Progress, when set, runs after each event commits.
	Progress func(ctx context.Context, eventID int64, slug string) `json:"-"`
}

type Importer struct {
	store    Store
	remote   RemoteFactory
	assets   Uploader
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time
}

func New(store Store, remote RemoteFactory, assets Uploader, defaults Defaults, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:    store,
		remote:   remote,
		assets:   assets,
		defaults: defaults.withFallbacks(),
		logger:   logger,
		now:      time.Now,
	}
}

// ImportEvents imports the given remote events one after another, each in
// its own transaction, and returns their target slugs in request order. The
// first failing event stops the run; its error is an *EventImportError.
func (im *Importer) ImportEvents(ctx context.Context, req Request) ([]string, error) {
	organizer := strings.TrimSpace(req.Organizer)
	if organizer == "" || strings.TrimSpace(req.APIKey) == "" {
		return nil, fmt.Errorf("%w: organizer and api key are required", ErrInvalidRequest)
	}
	remote, err := im.remote(req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("source client: %w", err)
	}

	slugs := make([]string, 0, len(req.EventIDs))
	for _, eventID := range req.EventIDs {
		start := im.now()
		im.logger.Info("import_event_started", "event_id", eventID, "organizer", organizer, "vouchers", req.WithVouchers, "orders", req.WithOrders)
		slug, err := im.importEvent(ctx, remote, organizer, eventID, req)
		if err != nil {
			im.logger.Error("import_event_failed", "event_id", eventID, "error", err)
			return nil, &EventImportError{EventID: eventID, Err: err}
		}
		im.logger.Info("import_event_done", "event_id", eventID, "slug", slug, "duration_ms", im.now().Sub(start).Milliseconds())
		slugs = append(slugs, slug)
		if req.Progress != nil {
			req.Progress(ctx, eventID, slug)
		}
	}
	return slugs, nil
}

func (im *Importer) importEvent(ctx context.Context, remote Remote, organizerSlug string, eventID int64, req Request) (slug string, err error) {
	tx, err := im.store.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.Background()); rbErr != nil {
			im.logger.Warn("import_rollback_failed", "event_id", eventID, "error", rbErr)
		}
	}()

	organizer, err := tx.EnsureOrganizer(ctx, organizerSlug)
	if err != nil {
		return "", fmt.Errorf("organizer: %w", err)
	}
	run := &eventRun{
		tx:        tx,
		remote:    remote,
		assets:    im.assets,
		defaults:  im.defaults,
		logger:    im.logger.With("event_id", eventID),
		now:       im.now,
		organizer: organizer,
		remoteID:  eventID,
		questions: make(map[int64]*questionRef),
	}

	if err := run.importEventData(ctx); err != nil {
		return "", err
	}
	if err := run.importCatalog(ctx); err != nil {
		return "", err
	}
	if err := run.importQuestions(ctx); err != nil {
		return "", err
	}
	if req.WithVouchers {
		if err := run.importVouchers(ctx); err != nil {
			return "", err
		}
	}
	if req.WithOrders {
		if err := run.importOrders(ctx); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	committed = true
	return run.event.Slug, nil
}

// eventRun carries the state of one event import across the mappers.
type eventRun struct {
	tx       Tx
	remote   Remote
	assets   Uploader
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time

	organizer models.Organizer
	remoteID  int64
	resolver  *Resolver

	event     models.Event
	shop      source.TicketShop
	locale    string
	loc       *time.Location
	currency  string
	taxRuleID *int64

	questions map[int64]*questionRef
}
