package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"eventmigrate/backend/internal/logging"
	"eventmigrate/backend/internal/source"
)

const apiHost = "www.xing-events.com"

// remoteFixture serves source API data for one or more events. Requests to
// hosts other than the API host are answered from files.
type remoteFixture struct {
	mu sync.Mutex

	events          map[int64]source.Event
	shops           map[int64]source.TicketShop
	categories      map[int64][]source.TicketCategory
	products        map[int64][]source.ProductDefinition
	fields          map[int64][]source.UserDataField
	codeDefs        map[int64][]source.CodeDefinition
	codes           map[int64][]source.Code
	payments        map[int64][]source.Payment
	paymentProducts map[int64][]source.PurchasedProduct
	tickets         map[int64][]source.Ticket
	ticketProducts  map[int64][]source.PurchasedProduct
	participants    map[int64]source.Participant
	files           map[string]string
	fail            map[string]int
	calls           map[string]int
}

func newRemoteFixture() *remoteFixture {
	return &remoteFixture{
		events:          map[int64]source.Event{},
		shops:           map[int64]source.TicketShop{},
		categories:      map[int64][]source.TicketCategory{},
		products:        map[int64][]source.ProductDefinition{},
		fields:          map[int64][]source.UserDataField{},
		codeDefs:        map[int64][]source.CodeDefinition{},
		codes:           map[int64][]source.Code{},
		payments:        map[int64][]source.Payment{},
		paymentProducts: map[int64][]source.PurchasedProduct{},
		tickets:         map[int64][]source.Ticket{},
		ticketProducts:  map[int64][]source.PurchasedProduct{},
		participants:    map[int64]source.Participant{},
		files:           map[string]string{},
		fail:            map[string]int{},
		calls:           map[string]int{},
	}
}

const codesPerPage = 2

func (f *remoteFixture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Host != apiHost {
		body, ok := f.files[r.Host+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(body))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/")
	f.calls[path]++
	if status, ok := f.fail[path]; ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("injected failure"))
		return
	}
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		f.notFound(w)
		return
	}
	id, _ := strconv.ParseInt(parts[1], 10, 64)
	sub := ""
	if len(parts) > 2 {
		sub = parts[2]
	}

	switch parts[0] + "/" + sub {
	case "event/":
		f.write(w, "event", f.events[id])
	case "event/ticketShop":
		f.write(w, "ticketShop", f.shops[id])
	case "event/ticketCategories":
		ids := []int64{}
		for _, c := range f.categories[id] {
			ids = append(ids, c.ID)
		}
		f.write(w, "ticketCategories", ids)
	case "ticketCategory/":
		for _, list := range f.categories {
			for _, c := range list {
				if c.ID == id {
					f.write(w, "ticketCategory", c)
					return
				}
			}
		}
		f.notFound(w)
	case "event/productDefinitions":
		ids := []int64{}
		for _, p := range f.products[id] {
			ids = append(ids, p.ID)
		}
		f.write(w, "productDefinitions", ids)
	case "productDefinition/":
		for _, list := range f.products {
			for _, p := range list {
				if p.ID == id {
					f.write(w, "productDefinition", p)
					return
				}
			}
		}
		f.notFound(w)
	case "event/userData":
		fields := f.fields[id]
		if fields == nil {
			fields = []source.UserDataField{}
		}
		f.write(w, "userData", fields)
	case "event/codeDefinitions":
		ids := []int64{}
		for _, d := range f.codeDefs[id] {
			ids = append(ids, d.ID)
		}
		f.write(w, "codeDefinitions", ids)
	case "codeDefinition/":
		for _, list := range f.codeDefs {
			for _, d := range list {
				if d.ID == id {
					f.write(w, "codeDefinition", d)
					return
				}
			}
		}
		f.notFound(w)
	case "codeDefinition/codes":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		all := f.codes[id]
		lastPage := 0
		if len(all) > 0 {
			lastPage = (len(all) - 1) / codesPerPage
		}
		start := page * codesPerPage
		end := start + codesPerPage
		if start > len(all) {
			start = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		f.writeEnvelope(w, map[string]interface{}{
			"codes":       all[start:end],
			"currentPage": page,
			"lastPage":    lastPage,
		})
	case "event/payments":
		ids := []int64{}
		for _, p := range f.payments[id] {
			ids = append(ids, p.ID)
		}
		f.write(w, "payments", ids)
	case "payment/":
		for _, list := range f.payments {
			for _, p := range list {
				if p.ID == id {
					f.write(w, "payment", p)
					return
				}
			}
		}
		f.notFound(w)
	case "payment/products":
		products := f.paymentProducts[id]
		if products == nil {
			products = []source.PurchasedProduct{}
		}
		f.write(w, "products", products)
	case "payment/tickets":
		ids := []int64{}
		for _, t := range f.tickets[id] {
			ids = append(ids, t.ID)
		}
		f.write(w, "tickets", ids)
	case "ticket/":
		for _, list := range f.tickets {
			for _, t := range list {
				if t.ID == id {
					f.write(w, "ticket", t)
					return
				}
			}
		}
		f.notFound(w)
	case "ticket/products":
		products := f.ticketProducts[id]
		if products == nil {
			products = []source.PurchasedProduct{}
		}
		f.write(w, "products", products)
	case "participant/":
		p, ok := f.participants[id]
		if !ok {
			f.notFound(w)
			return
		}
		f.write(w, "participant", p)
	default:
		f.notFound(w)
	}
}

func (f *remoteFixture) write(w http.ResponseWriter, key string, value interface{}) {
	f.writeEnvelope(w, map[string]interface{}{key: value})
}

func (f *remoteFixture) writeEnvelope(w http.ResponseWriter, fields map[string]interface{}) {
	fields["success"] = true
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(fields)
}

func (f *remoteFixture) notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "errors": []string{"not found"}})
}

func (f *remoteFixture) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// rewriteTransport sends every request to the test server while keeping the
// original Host header, so one server can play the API and asset hosts.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Host = req.URL.Host
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *memUploader) UploadObject(ctx context.Context, key, contentType string, body []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = body
	return "https://assets.test/" + key, nil
}

func (u *memUploader) keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.objects))
	for k := range u.objects {
		out = append(out, k)
	}
	return out
}

type harness struct {
	remote   *remoteFixture
	store    *memStore
	uploader *memUploader
	importer *Importer
}

func newHarness(t *testing.T, fixture *remoteFixture) *harness {
	t.Helper()
	srv := httptest.NewServer(fixture)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	httpClient := &http.Client{Transport: rewriteTransport{target: target}}

	h := &harness{remote: fixture, store: newMemStore(), uploader: &memUploader{}}
	factory := func(apiKey string) (Remote, error) {
		return source.NewClient(source.Config{BaseURL: "https://" + apiHost + "/api/"}, apiKey, httpClient, logging.Discard())
	}
	h.importer = New(h.store, factory, h.uploader, Defaults{}, logging.Discard())
	return h
}

func (h *harness) run(t *testing.T, eventIDs []int64, vouchers, orders bool) ([]string, error) {
	t.Helper()
	return h.importer.ImportEvents(context.Background(), Request{
		Organizer:    "acme",
		APIKey:       "key",
		EventIDs:     eventIDs,
		WithVouchers: vouchers,
		WithOrders:   orders,
	})
}

func ptrInt(v int) *int       { return &v }
func ptrInt64(v int64) *int64 { return &v }
func ptrFloat(v float64) *float64 {
	return &v
}

// conferenceFixture is the basic scenario: event 12 "conf2024", one ticket
// category at 50.00 EUR and one paid payment of 50.00 with a single ticket.
func conferenceFixture() *remoteFixture {
	f := newRemoteFixture()
	f.events[12] = source.Event{
		ID:           12,
		Identifier:   "conf2024",
		Title:        "Conference 2024",
		Language:     "en",
		SelectedDate: "2024-09-01T09:00:00Z",
	}
	f.shops[12] = source.TicketShop{Currency: "EUR"}
	f.categories[12] = []source.TicketCategory{
		{ID: 100, Name: "Regular", Price: 5000, Available: ptrInt(80), Sold: 20, Reserved: 3, Active: true},
	}
	f.payments[12] = []source.Payment{
		{ID: 500, Identifier: "XE-2024-AB12CD", Status: source.PaymentPaid, Amount: 5000, Currency: "EUR", CreatedAt: "2024-05-01T10:00:00Z"},
	}
	f.tickets[500] = []source.Ticket{
		{ID: 900, Identifier: "T-900", TicketCategoryID: 100, Status: source.TicketActive, OriginalPrice: 5000, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	}
	return f
}
