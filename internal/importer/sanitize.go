package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var allowedTags = map[string]bool{
	"a": true, "abbr": true, "acronym": true, "b": true, "br": true, "code": true,
	"div": true, "em": true, "hr": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "i": true, "li": true, "ol": true,
	"p": true, "pre": true, "span": true, "strong": true, "table": true,
	"tbody": true, "thead": true, "tr": true, "td": true, "th": true, "ul": true,
}

var allowedAttributes = map[string]map[string]bool{
	"a":       {"href": true, "title": true, "class": true},
	"abbr":    {"title": true},
	"acronym": {"title": true},
	"table":   {"width": true},
	"td":      {"width": true, "align": true},
	"div":     {"class": true},
	"p":       {"class": true},
	"span":    {"class": true, "title": true},
}

var allowedProtocols = []string{"http:", "https:", "mailto:", "tel:"}

// droppedTags are removed together with their content.
var droppedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true,
	"noscript": true, "template": true,
}

// SanitizeHTML reduces remote rich text to the tags and attributes the
// target renders. Disallowed tags are unwrapped and their text kept.
func SanitizeHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return ""
	}
	body := doc.Find("body")

	body.Find("*").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		if droppedTags[tag] {
			sel.Remove()
		}
	})
	// Unwrap bottom-up so nested disallowed tags are all reached.
	nodes := body.Find("*")
	for i := nodes.Length() - 1; i >= 0; i-- {
		sel := nodes.Eq(i)
		tag := goquery.NodeName(sel)
		if allowedTags[tag] {
			filterAttributes(sel, tag)
			continue
		}
		if sel.Contents().Length() > 0 {
			sel.Contents().Unwrap()
		} else {
			sel.Remove()
		}
	}

	out, err := body.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func filterAttributes(sel *goquery.Selection, tag string) {
	node := sel.Get(0)
	allowed := allowedAttributes[tag]
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		name := strings.ToLower(attr.Key)
		if !allowed[name] {
			continue
		}
		if name == "href" && !safeURL(attr.Val) {
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}

func safeURL(raw string) bool {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || strings.HasPrefix(value, "#") || strings.HasPrefix(value, "/") {
		return true
	}
	for _, p := range allowedProtocols {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return !strings.Contains(value, ":")
}
