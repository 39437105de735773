package importer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

// Uploader stores re-hosted files and returns their public URL.
type Uploader interface {
	UploadObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}

var ErrAssetStorageDisabled = errors.New("asset storage is not configured")

// rehost copies a remote file into asset storage under
// <prefix>/<organizer>/<event>/<basename>.<nonce>.<ext>.
func (r *eventRun) rehost(ctx context.Context, rawURL, basename string) (string, error) {
	if r.assets == nil {
		return "", ErrAssetStorageDisabled
	}
	body, contentType, err := r.remote.Download(ctx, rawURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s/%s.%s.%s",
		r.defaults.AssetPrefix, r.organizer.Slug, r.event.Slug, basename, nonce(), fileExtension(rawURL, contentType))
	hosted, err := r.assets.UploadObject(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	r.logger.Debug("import_asset_rehosted", "url", rawURL, "key", key, "bytes", len(body))
	return hosted, nil
}

func nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func fileExtension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return "bin"
}

// isSourceHosted reports whether rawURL lives under the registrable domain
// of the source platform, e.g. cdn.xing-events.com for xing-events.com.
func isSourceHosted(rawURL, sourceDomain string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || sourceDomain == "" {
		return false
	}
	hostSite, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	sourceSite, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(strings.TrimSpace(sourceDomain)))
	if err != nil {
		return false
	}
	return hostSite == sourceSite
}
