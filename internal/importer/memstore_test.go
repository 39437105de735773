package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"eventmigrate/backend/internal/models"
)

// memState is the committed content of memStore. Transactions work on a
// copy and swap it in on commit.
type memState struct {
	nextID       int64
	organizers   map[string]models.Organizer
	events       map[int64]models.Event
	settings     map[int64]map[string]interface{}
	metaProps    map[string]models.MetaProperty
	metaValues   map[[2]int64]string
	markers      map[string]int64
	taxRules     map[int64]models.TaxRule
	categories   map[int64]models.ItemCategory
	items        map[int64]models.Item
	variations   map[int64]models.ItemVariation
	quotas       map[int64]models.Quota
	addons       map[[2]int64]models.ItemAddon
	questions    map[int64]models.Question
	options      map[int64]models.QuestionOption
	vouchers     map[int64]models.Voucher
	checkinLists map[int64]models.CheckinList
	orders       map[int64]models.OrderDraft
}

func newMemState() *memState {
	return &memState{
		organizers:   map[string]models.Organizer{},
		events:       map[int64]models.Event{},
		settings:     map[int64]map[string]interface{}{},
		metaProps:    map[string]models.MetaProperty{},
		metaValues:   map[[2]int64]string{},
		markers:      map[string]int64{},
		taxRules:     map[int64]models.TaxRule{},
		categories:   map[int64]models.ItemCategory{},
		items:        map[int64]models.Item{},
		variations:   map[int64]models.ItemVariation{},
		quotas:       map[int64]models.Quota{},
		addons:       map[[2]int64]models.ItemAddon{},
		questions:    map[int64]models.Question{},
		options:      map[int64]models.QuestionOption{},
		vouchers:     map[int64]models.Voucher{},
		checkinLists: map[int64]models.CheckinList{},
		orders:       map[int64]models.OrderDraft{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:       s.nextID,
		organizers:   copyMap(s.organizers),
		events:       copyMap(s.events),
		settings:     copyMap(s.settings),
		metaProps:    copyMap(s.metaProps),
		metaValues:   copyMap(s.metaValues),
		markers:      copyMap(s.markers),
		taxRules:     copyMap(s.taxRules),
		categories:   copyMap(s.categories),
		items:        copyMap(s.items),
		variations:   copyMap(s.variations),
		quotas:       copyMap(s.quotas),
		addons:       copyMap(s.addons),
		questions:    copyMap(s.questions),
		options:      copyMap(s.options),
		vouchers:     copyMap(s.vouchers),
		checkinLists: copyMap(s.checkinLists),
		orders:       copyMap(s.orders),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

type memStore struct {
	mu    sync.Mutex
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memTx{store: m, state: m.state.clone()}, nil
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTx struct {
	store *memStore
	state *memState
	done  bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return nil
}

func (t *memTx) EnsureOrganizer(ctx context.Context, slug string) (models.Organizer, error) {
	if org, ok := t.state.organizers[slug]; ok {
		return org, nil
	}
	org := models.Organizer{ID: t.state.id(), Slug: slug}
	t.state.organizers[slug] = org
	return org, nil
}

func (t *memTx) UpsertEvent(ctx context.Context, event models.Event) (models.Event, error) {
	for id, existing := range t.state.events {
		if existing.OrganizerID == event.OrganizerID && existing.Slug == event.Slug {
			event.ID = id
			event.CreatedAt = existing.CreatedAt
			t.state.events[id] = event
			return event, nil
		}
	}
	event.ID = t.state.id()
	t.state.events[event.ID] = event
	return event, nil
}

func (t *memTx) SetEventSettings(ctx context.Context, eventID int64, settings map[string]interface{}) error {
	merged := copyMap(t.state.settings[eventID])
	for k, v := range settings {
		merged[k] = v
	}
	t.state.settings[eventID] = merged
	return nil
}

func (t *memTx) GetOrCreateMetaProperty(ctx context.Context, organizerID int64, name string) (models.MetaProperty, error) {
	key := fmt.Sprintf("%d/%s", organizerID, name)
	if prop, ok := t.state.metaProps[key]; ok {
		return prop, nil
	}
	prop := models.MetaProperty{ID: t.state.id(), OrganizerID: organizerID, Name: name}
	t.state.metaProps[key] = prop
	return prop, nil
}

func (t *memTx) SetEventMetaValue(ctx context.Context, eventID, propertyID int64, value string) error {
	t.state.metaValues[[2]int64{eventID, propertyID}] = value
	return nil
}

func markerKeyString(eventID int64, kind, externalID string) string {
	return fmt.Sprintf("%d|%s|%s", eventID, kind, externalID)
}

func (t *memTx) LookupMarker(ctx context.Context, eventID int64, kind, externalID string) (int64, bool, error) {
	id, ok := t.state.markers[markerKeyString(eventID, kind, externalID)]
	return id, ok, nil
}

func (t *memTx) RecordMarker(ctx context.Context, eventID int64, kind, externalID string, targetID int64) error {
	t.state.markers[markerKeyString(eventID, kind, externalID)] = targetID
	return nil
}

func (t *memTx) SaveTaxRule(ctx context.Context, rule models.TaxRule) (models.TaxRule, error) {
	if rule.ID == 0 {
		rule.ID = t.state.id()
	} else if _, ok := t.state.taxRules[rule.ID]; !ok {
		return rule, models.ErrNotFound
	}
	t.state.taxRules[rule.ID] = rule
	return rule, nil
}

func (t *memTx) SaveItemCategory(ctx context.Context, category models.ItemCategory) (models.ItemCategory, error) {
	if category.ID == 0 {
		category.ID = t.state.id()
	} else if _, ok := t.state.categories[category.ID]; !ok {
		return category, models.ErrNotFound
	}
	t.state.categories[category.ID] = category
	return category, nil
}

func (t *memTx) SaveItem(ctx context.Context, item models.Item) (models.Item, error) {
	if item.ID == 0 {
		item.ID = t.state.id()
	} else {
		existing, ok := t.state.items[item.ID]
		if !ok {
			return item, models.ErrNotFound
		}
		item.HideWithoutVoucher = existing.HideWithoutVoucher
	}
	t.state.items[item.ID] = item
	return item, nil
}

func (t *memTx) SaveItemVariation(ctx context.Context, variation models.ItemVariation) (models.ItemVariation, error) {
	if variation.ID == 0 {
		variation.ID = t.state.id()
	} else if _, ok := t.state.variations[variation.ID]; !ok {
		return variation, models.ErrNotFound
	}
	t.state.variations[variation.ID] = variation
	return variation, nil
}

func (t *memTx) SaveQuota(ctx context.Context, quota models.Quota) (models.Quota, error) {
	if quota.ID == 0 {
		quota.ID = t.state.id()
	} else if _, ok := t.state.quotas[quota.ID]; !ok {
		return quota, models.ErrNotFound
	}
	t.state.quotas[quota.ID] = quota
	return quota, nil
}

func (t *memTx) SetItemAddon(ctx context.Context, addon models.ItemAddon) error {
	t.state.addons[[2]int64{addon.BaseItemID, addon.AddonCategoryID}] = addon
	return nil
}

func (t *memTx) ListAdmissionItemIDs(ctx context.Context, eventID int64) ([]int64, error) {
	var ids []int64
	for id, item := range t.state.items {
		if item.EventID == eventID && item.Admission {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *memTx) HideItemsWithoutVoucher(ctx context.Context, eventID int64, itemIDs []int64) error {
	for _, id := range itemIDs {
		item, ok := t.state.items[id]
		if !ok || item.EventID != eventID {
			return models.ErrNotFound
		}
		item.HideWithoutVoucher = true
		t.state.items[id] = item
	}
	return nil
}

func (t *memTx) UpsertQuestion(ctx context.Context, question models.Question) (models.Question, error) {
	for id, existing := range t.state.questions {
		if existing.EventID == question.EventID && existing.Identifier == question.Identifier {
			question.ID = id
			t.state.questions[id] = question
			return question, nil
		}
	}
	question.ID = t.state.id()
	t.state.questions[question.ID] = question
	return question, nil
}

func (t *memTx) UpsertQuestionOption(ctx context.Context, option models.QuestionOption) (models.QuestionOption, error) {
	for id, existing := range t.state.options {
		if existing.QuestionID == option.QuestionID && existing.Identifier == option.Identifier {
			option.ID = id
			t.state.options[id] = option
			return option, nil
		}
	}
	option.ID = t.state.id()
	t.state.options[option.ID] = option
	return option, nil
}

func (t *memTx) DeleteQuestionOptionsExcept(ctx context.Context, questionID int64, keep []string) (int64, error) {
	kept := make(map[string]bool, len(keep))
	for _, identifier := range keep {
		kept[identifier] = true
	}
	var removed int64
	for id, option := range t.state.options {
		if option.QuestionID == questionID && !kept[option.Identifier] {
			delete(t.state.options, id)
			removed++
		}
	}
	return removed, nil
}

func (t *memTx) UpsertVoucher(ctx context.Context, voucher models.Voucher) (models.Voucher, error) {
	if voucher.ItemID != nil && voucher.QuotaID != nil {
		return voucher, errors.New("voucher binds both item and quota")
	}
	for id, existing := range t.state.vouchers {
		if existing.EventID == voucher.EventID && existing.Code == voucher.Code {
			voucher.ID = id
			t.state.vouchers[id] = voucher
			return voucher, nil
		}
	}
	voucher.ID = t.state.id()
	t.state.vouchers[voucher.ID] = voucher
	return voucher, nil
}

func (t *memTx) EnsureCheckinList(ctx context.Context, eventID int64, name string) (models.CheckinList, error) {
	for _, list := range t.state.checkinLists {
		if list.EventID == eventID && list.Name == name {
			return list, nil
		}
	}
	list := models.CheckinList{ID: t.state.id(), EventID: eventID, Name: name, AllProducts: true}
	t.state.checkinLists[list.ID] = list
	return list, nil
}

func (t *memTx) OrderExists(ctx context.Context, eventID int64, code string) (bool, error) {
	for _, draft := range t.state.orders {
		if draft.Order.EventID == eventID && draft.Order.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CreateOrder(ctx context.Context, eventID int64, draft models.OrderDraft) (models.Order, error) {
	if exists, _ := t.OrderExists(ctx, eventID, draft.Order.Code); exists {
		return models.Order{}, fmt.Errorf("duplicate order code %s", draft.Order.Code)
	}
	draft.Order.ID = t.state.id()
	draft.Order.EventID = eventID
	t.state.orders[draft.Order.ID] = draft
	return draft.Order, nil
}

// helpers for assertions

func (s *memState) ordersByCode() map[string]models.OrderDraft {
	out := make(map[string]models.OrderDraft, len(s.orders))
	for _, d := range s.orders {
		out[d.Order.Code] = d
	}
	return out
}

func (s *memState) eventBySlug(slug string) (models.Event, bool) {
	for _, e := range s.events {
		if e.Slug == slug {
			return e, true
		}
	}
	return models.Event{}, false
}
