package importer

import (
	"strings"

	"eventmigrate/backend/internal/config"
)

// Defaults are the fallbacks applied when the remote data leaves a value
// open. They are passed explicitly to every mapper.
type Defaults struct {
	Locale          string
	Timezone        string
	Region          string
	Currency        string
	AddonMinCount   int
	VoucherMaxUsage int
	SourceDomain    string
	AssetPrefix     string
	CheckinListName string
}

func DefaultsFromConfig(cfg config.ImportConfig) Defaults {
	d := Defaults{
		Locale:          cfg.Locale,
		Timezone:        cfg.Timezone,
		Region:          cfg.Region,
		Currency:        strings.ToUpper(cfg.Currency),
		AddonMinCount:   cfg.AddonMinCount,
		VoucherMaxUsage: cfg.VoucherMaxUsage,
		SourceDomain:    cfg.SourceDomain,
		AssetPrefix:     strings.Trim(cfg.AssetPrefix, "/"),
	}
	return d.withFallbacks()
}

func (d Defaults) withFallbacks() Defaults {
	base := config.DefaultImportConfig()
	if d.Locale == "" {
		d.Locale = base.Locale
	}
	if d.Timezone == "" {
		d.Timezone = base.Timezone
	}
	if d.Region == "" {
		d.Region = base.Region
	}
	if d.Currency == "" {
		d.Currency = base.Currency
	}
	if d.AddonMinCount < 0 {
		d.AddonMinCount = 0
	}
	if d.VoucherMaxUsage <= 0 {
		d.VoucherMaxUsage = base.VoucherMaxUsage
	}
	if d.SourceDomain == "" {
		d.SourceDomain = base.SourceDomain
	}
	if d.AssetPrefix == "" {
		d.AssetPrefix = base.AssetPrefix
	}
	if d.CheckinListName == "" {
		d.CheckinListName = "Default"
	}
	return d
}
