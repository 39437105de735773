package importer

import (
	"testing"

	"eventmigrate/backend/internal/source"

	"github.com/shopspring/decimal"
)

func catalogFixture() *remoteFixture {
	f := conferenceFixture()
	f.shops[12] = source.TicketShop{Currency: "EUR", MaxTickets: ptrInt(150)}
	f.categories[12] = append(f.categories[12],
		source.TicketCategory{ID: 101, Name: "Student", Price: 2500, Sold: 5, Active: true, MinPerOrder: ptrInt(1), MaxPerOrder: ptrInt(2)},
	)
	f.products[12] = []source.ProductDefinition{
		{ID: 200, Title: "T-Shirt", Active: true, Options: []source.ProductOption{
			{ID: 2001, Name: "S", Price: 1500, Available: ptrInt(10), Sold: 2},
			{ID: 2002, Name: "M", Price: 1700, Available: ptrInt(5), Sold: 0},
		}},
		{ID: 201, Title: "Lunch", Active: true, Options: []source.ProductOption{
			{ID: 2011, Name: "Lunch", Price: 1200, Available: ptrInt(40), Sold: 4},
		}},
		{ID: 202, Title: "Donation", Type: source.ProductTypePayment, Active: true, Options: []source.ProductOption{
			{ID: 2021, Name: "5 EUR", Price: 500},
		}},
		{ID: 203, Title: "Placeholder", Active: false},
	}
	return f
}

func TestImportCatalogItemsQuotasAndAddons(t *testing.T) {
	h := newHarness(t, catalogFixture())
	if _, err := h.run(t, []int64{12}, false, false); err != nil {
		t.Fatalf("ImportEvents(): %v", err)
	}
	state := h.store.snapshot()
	event, _ := state.eventBySlug("conf2024")
	marker := func(kind, ext string) int64 {
		t.Helper()
		id, ok := state.markers[markerKeyString(event.ID, kind, ext)]
		if !ok {
			t.Fatalf("missing marker %s/%s", kind, ext)
		}
		return id
	}

	student := state.items[marker(KindTicketCategory, "101")]
	if !student.Admission || !student.DefaultPrice.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected student item %#v", student)
	}
	if student.MinPerOrder == nil || *student.MinPerOrder != 1 || student.MaxPerOrder == nil || *student.MaxPerOrder != 2 {
		t.Fatalf("order limits not copied %#v", student)
	}
	if q := state.quotas[marker(KindTicketCategoryQuota, "101")]; q.Size != nil {
		t.Fatalf("category without available count should be unlimited, got %d", *q.Size)
	}
	shopQuota := state.quotas[marker(KindShopQuota, shopExternalID)]
	if shopQuota.Size == nil || *shopQuota.Size != 150 || len(shopQuota.Members) != 2 {
		t.Fatalf("unexpected shop quota %#v", shopQuota)
	}

	shirt := state.items[marker(KindProductDefinition, "200")]
	if shirt.Admission || shirt.Name.In("en") != "T-Shirt" {
		t.Fatalf("unexpected shirt item %#v", shirt)
	}
	small := state.variations[marker(KindProductOption, "2001")]
	if small.ItemID != shirt.ID || !small.DefaultPrice.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("unexpected variation %#v", small)
	}
	smallQuota := state.quotas[marker(KindProductOptionQuota, "2001")]
	if smallQuota.Size == nil || *smallQuota.Size != 12 || smallQuota.Members[0].VariationID == nil || *smallQuota.Members[0].VariationID != small.ID {
		t.Fatalf("unexpected variation quota %#v", smallQuota)
	}

	lunch := state.items[marker(KindProductDefinition, "201")]
	if lunch.Name.In("en") != "Lunch" || !lunch.DefaultPrice.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("single option product should use its title alone: %#v", lunch)
	}
	if q := state.quotas[marker(KindProductQuota, "201")]; q.Size == nil || *q.Size != 44 || q.Members[0].ItemID != lunch.ID {
		t.Fatalf("unexpected product quota %#v", q)
	}

	donation := state.items[marker(KindProductDefinition, "202")]
	if donation.Name.In("en") != "Donation 5 EUR" {
		t.Fatalf("unexpected donation name %q", donation.Name.In("en"))
	}
	options := state.categories[*donation.CategoryID]
	if options.IsAddon {
		t.Fatalf("payment products belong to the order options category")
	}
	addons := state.categories[*shirt.CategoryID]
	if !addons.IsAddon {
		t.Fatalf("products belong to the add-on category")
	}

	placeholder := state.items[marker(KindProductDefinition, "203")]
	if !placeholder.DefaultPrice.IsZero() {
		t.Fatalf("product without options should cost nothing")
	}
	if _, ok := state.markers[markerKeyString(event.ID, KindProductQuota, "203")]; ok {
		t.Fatalf("product without options should have no quota")
	}

	if len(state.addons) != 2 {
		t.Fatalf("expected both admission items linked to add-ons, got %d", len(state.addons))
	}
	for _, addon := range state.addons {
		if addon.AddonCategoryID != addons.ID || addon.MinCount != 0 || addon.MaxCount != 3 {
			t.Fatalf("unexpected add-on link %#v", addon)
		}
	}
}

func TestImportCatalogKeepsHiddenFlagOnReimport(t *testing.T) {
	f := catalogFixture()
	f.codeDefs[12] = []source.CodeDefinition{
		{ID: 41, Name: "Secret", DiscountType: source.CodeTypeCategory, TicketCategoryIDs: []int64{101}},
	}
	f.codes[41] = []source.Code{{ID: 1, Code: "OPEN"}}
	h := newHarness(t, f)

	for i := 0; i < 2; i++ {
		if _, err := h.run(t, []int64{12}, i == 0, false); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	state := h.store.snapshot()
	event, _ := state.eventBySlug("conf2024")
	item := state.items[state.markers[markerKeyString(event.ID, KindTicketCategory, "101")]]
	if !item.HideWithoutVoucher {
		t.Fatalf("re-importing the catalog must not reveal voucher-only items")
	}
}

func TestImportCatalogHealsStaleMarker(t *testing.T) {
	h := newHarness(t, conferenceFixture())
	if _, err := h.run(t, []int64{12}, false, false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	h.store.mu.Lock()
	event, _ := h.store.state.eventBySlug("conf2024")
	stale := h.store.state.markers[markerKeyString(event.ID, KindTicketCategory, "100")]
	delete(h.store.state.items, stale)
	h.store.mu.Unlock()

	if _, err := h.run(t, []int64{12}, false, false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	state := h.store.snapshot()
	healed := state.markers[markerKeyString(event.ID, KindTicketCategory, "100")]
	if healed == stale {
		t.Fatalf("marker should point at the re-created item")
	}
	if _, ok := state.items[healed]; !ok {
		t.Fatalf("re-created item missing")
	}
}

func TestSingleOptionName(t *testing.T) {
	t.Parallel()

	cases := []struct{ title, option, want string }{
		{"Lunch", "Lunch", "Lunch"},
		{"Lunch", "lunch", "Lunch"},
		{"Lunch", "", "Lunch"},
		{"Lunch", "Vegan", "Lunch Vegan"},
	}
	for _, c := range cases {
		if got := singleOptionName(c.title, c.option); got != c.want {
			t.Fatalf("singleOptionName(%q, %q) = %q, want %q", c.title, c.option, got, c.want)
		}
	}
}

func TestCapacityIgnoresReserved(t *testing.T) {
	t.Parallel()

	if got := capacity(ptrInt(80), 20); got == nil || *got != 100 {
		t.Fatalf("capacity() = %v", got)
	}
	if got := capacity(nil, 20); got != nil {
		t.Fatalf("uncapped capacity should be nil")
	}
}

