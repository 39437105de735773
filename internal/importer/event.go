package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"

	"github.com/shopspring/decimal"
)

// Names of the organizer level metadata properties filled from the event.
const (
	metaInternalReference = "Interne Referenz"
	metaOnlineType        = "Online-Typ"
	metaAccessibility     = "Barrierefreiheit"
	metaType              = "Typ"
	metaTwitterHashtag    = "Twitter-Hashtag"
)

func (r *eventRun) importEventData(ctx context.Context) error {
	ev, err := r.remote.Event(ctx, r.remoteID)
	if err != nil {
		return err
	}
	shop, err := r.remote.TicketShop(ctx, r.remoteID)
	if err != nil {
		return err
	}

	r.shop = shop

	slug, err := NormalizeSlug(ev.Identifier)
	if err != nil {
		return fmt.Errorf("event identifier %q: %w", ev.Identifier, err)
	}

	r.locale = firstNonEmpty(ev.Language, r.defaults.Locale)
	timezone := firstNonEmpty(ev.Timezone, r.defaults.Timezone)
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		r.logger.Warn("import_event_timezone_invalid", "timezone", timezone, "fallback", r.defaults.Timezone)
		timezone = r.defaults.Timezone
		if loc, err = time.LoadLocation(timezone); err != nil {
			return fmt.Errorf("load timezone %s: %w", timezone, err)
		}
	}
	r.loc = loc
	r.currency = strings.ToUpper(firstNonEmpty(shop.Currency, r.defaults.Currency))

	dateFrom, err := source.ParseTime(ev.SelectedDate, loc)
	if err != nil {
		return fmt.Errorf("event start date: %w", err)
	}
	if dateFrom == nil {
		return fmt.Errorf("event %d has no start date", ev.ID)
	}

	event := models.Event{
		OrganizerID: r.organizer.ID,
		Slug:        slug,
		Name:        models.LocalizedString{r.locale: strings.TrimSpace(ev.Title)},
		Location:    models.LocalizedString{r.locale: locationText(ev)},
		Currency:    r.currency,
		DateFrom:    *dateFrom,
		DateTo:      r.optionalTime("selectedEndDate", ev.SelectedEndDate),
		PresaleFrom: r.optionalTime("salesStartDate", shop.SalesStart),
		PresaleTo:   r.optionalTime("salesEndDate", shop.SalesEnd),
	}
	if ev.Latitude != nil && *ev.Latitude != 0 {
		event.GeoLat = ev.Latitude
	}
	if ev.Longitude != nil && *ev.Longitude != 0 {
		event.GeoLon = ev.Longitude
	}

	saved, err := r.tx.UpsertEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("save event %s: %w", slug, err)
	}
	r.event = saved
	r.resolver = NewResolver(r.tx, saved.ID)
	r.logger = r.logger.With("slug", saved.Slug)

	if err := r.importTaxRule(ctx, shop); err != nil {
		return err
	}

	settings, err := r.eventSettings(ctx, ev, shop, timezone)
	if err != nil {
		return err
	}
	if err := r.tx.SetEventSettings(ctx, saved.ID, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := r.importMetaValues(ctx, ev); err != nil {
		return err
	}

	r.logger.Info("import_event_data_done", "settings", len(settings))
	return nil
}

func (r *eventRun) eventSettings(ctx context.Context, ev source.Event, shop source.TicketShop, timezone string) (map[string]interface{}, error) {
	settings := map[string]interface{}{
		"locales":         []string{r.locale},
		"locale":          r.locale,
		"region":          firstNonEmpty(ev.Country, r.defaults.Region),
		"timezone":        timezone,
		"meta_noindex":    !ev.PublishSearchEngines,
		"show_times":      !ev.HideTime,
		"show_quota_left": shop.ShowAvailableTickets,
	}
	if email := strings.TrimSpace(ev.OrganizerEmail); email != "" {
		settings["contact_mail"] = email
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		settings["frontpage_text"] = models.LocalizedString{r.locale: SanitizeHTML(desc)}
	}

	var confirmTexts []models.LocalizedString
	if terms := strings.TrimSpace(shop.TermsURL); terms != "" {
		link, err := r.legalLink(ctx, terms, "terms")
		if err != nil {
			return nil, err
		}
		confirmTexts = append(confirmTexts, confirmText(termsTemplates, r.locale, link))
	}
	if privacy := strings.TrimSpace(shop.PrivacyURL); privacy != "" {
		link, err := r.legalLink(ctx, privacy, "privacy")
		if err != nil {
			return nil, err
		}
		confirmTexts = append(confirmTexts, confirmText(privacyTemplates, r.locale, link))
	}
	if len(confirmTexts) > 0 {
		settings["confirm_texts"] = confirmTexts
	}

	logo := firstNonEmpty(ev.Banner, ev.Logo)
	if logo != "" {
		hosted, err := r.rehost(ctx, logo, "logo_image")
		if err != nil {
			return nil, fmt.Errorf("logo: %w", err)
		}
		settings["logo_image"] = hosted
		settings["logo_image_large"] = true
	}
	return settings, nil
}

// legalLink re-hosts documents stored on the source platform and links
// everything else directly.
func (r *eventRun) legalLink(ctx context.Context, rawURL, basename string) (string, error) {
	if !isSourceHosted(rawURL, r.defaults.SourceDomain) {
		return rawURL, nil
	}
	hosted, err := r.rehost(ctx, rawURL, basename)
	if err != nil {
		return "", fmt.Errorf("%s document: %w", basename, err)
	}
	return hosted, nil
}

var termsTemplates = map[string]string{
	"de": `Ich habe die <a href="%s" target="_blank">Allgemeinen Geschäftsbedingungen</a> gelesen und akzeptiere sie.`,
	"en": `I have read and accept the <a href="%s" target="_blank">terms and conditions</a>.`,
}

var privacyTemplates = map[string]string{
	"de": `Ich habe die <a href="%s" target="_blank">Datenschutzerklärung</a> zur Kenntnis genommen.`,
	"en": `I have taken note of the <a href="%s" target="_blank">privacy policy</a>.`,
}

func confirmText(templates map[string]string, locale, link string) models.LocalizedString {
	tmpl, ok := templates[locale]
	if !ok {
		tmpl = templates["en"]
	}
	return models.LocalizedString{locale: fmt.Sprintf(tmpl, link)}
}

func (r *eventRun) importTaxRule(ctx context.Context, shop source.TicketShop) error {
	if !shop.Commercial || shop.SalesTax == nil {
		return nil
	}
	rule := models.TaxRule{
		EventID: r.event.ID,
		Name:    models.LocalizedString{r.locale: taxRuleName(r.locale)},
		Rate:    decimal.NewFromFloat(*shop.SalesTax).Round(2),
	}
	id, err := saveMarked(ctx, r.resolver, KindTaxRule, shopExternalID, func(id int64) (int64, error) {
		rule.ID = id
		saved, err := r.tx.SaveTaxRule(ctx, rule)
		return saved.ID, err
	})
	if err != nil {
		return err
	}
	r.taxRuleID = &id
	return nil
}

func taxRuleName(locale string) string {
	if locale == "de" {
		return "MwSt."
	}
	return "VAT"
}

func (r *eventRun) importMetaValues(ctx context.Context, ev source.Event) error {
	values := []struct {
		name  string
		value string
	}{
		{metaInternalReference, ev.InternalReference},
		{metaOnlineType, ev.OnlineType},
		{metaAccessibility, ev.Accessibility},
		{metaType, strings.TrimPrefix(strings.TrimSpace(ev.Type), "EVENT_TYPE_")},
		{metaTwitterHashtag, ev.TwitterHashtag},
	}
	for _, v := range values {
		value := strings.TrimSpace(v.value)
		if value == "" {
			continue
		}
		prop, err := r.tx.GetOrCreateMetaProperty(ctx, r.organizer.ID, v.name)
		if err != nil {
			return fmt.Errorf("meta property %s: %w", v.name, err)
		}
		if err := r.tx.SetEventMetaValue(ctx, r.event.ID, prop.ID, value); err != nil {
			return fmt.Errorf("meta value %s: %w", v.name, err)
		}
	}
	return nil
}

// optionalTime parses a timestamp that may be missing. Unparseable values
// are logged and treated as missing.
func (r *eventRun) optionalTime(field, value string) *time.Time {
	t, err := source.ParseTime(value, r.loc)
	if err != nil {
		r.logger.Warn("import_time_ignored", "field", field, "value", value, "error", err)
		return nil
	}
	return t
}

func locationText(ev source.Event) string {
	lines := []string{
		ev.Location,
		ev.Street,
		ev.Street2,
		strings.TrimSpace(ev.ZipCode + " " + ev.City),
		ev.LocationDescription,
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

const maxSlugLen = 50

// NormalizeSlug turns a remote event identifier into a target slug:
// lower-case, [a-z0-9-] only, starting with an alphanumeric character.
func NormalizeSlug(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-", ".", "-").Replace(s)

	var b strings.Builder
	lastDash := false
	for _, c := range s {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			b.WriteRune(c)
			lastDash = false
		case c == '-' && !lastDash:
			b.WriteRune(c)
			lastDash = true
		}
	}
	s = strings.Trim(b.String(), "-")
	if s == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s, nil
}
