package fetch

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/phishscan/internal/feature"
)

// Parse reads an HTML document and collects the references the content
// indicators need. pageURL is recorded as the page URL; references are kept
// as written so relative ones stay recognizable as same-site.
//
// Design decision: We use goquery selectors rather than walking the node
// tree by hand because:
//  1. Each indicator maps to one selector, which keeps them auditable
//  2. goquery tolerates the malformed markup phishing kits produce
//  3. Attribute lookups on missing attributes are safe by default
func Parse(pageURL string, r io.Reader) (*feature.Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page := &feature.Page{
		URL:             pageURL,
		Favicons:        make([]string, 0),
		Media:           make([]string, 0),
		Anchors:         make([]string, 0),
		LinksAndScripts: make([]string, 0),
		FormActions:     make([]string, 0),
	}

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(rel, "icon") {
			return
		}
		page.Favicons = append(page.Favicons, strings.TrimSpace(href))
	})

	doc.Find("img[src], audio[src], video[src], source[src], embed[src]").Each(func(_ int, s *goquery.Selection) {
		page.Media = append(page.Media, strings.TrimSpace(s.AttrOr("src", "")))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		page.Anchors = append(page.Anchors, strings.TrimSpace(s.AttrOr("href", "")))
	})

	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		page.LinksAndScripts = append(page.LinksAndScripts, strings.TrimSpace(s.AttrOr("href", "")))
	})
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		page.LinksAndScripts = append(page.LinksAndScripts, strings.TrimSpace(s.AttrOr("src", "")))
	})

	// A form without an action posts back to the page itself. Only an
	// explicit empty action is kept, since that is what the handler
	// indicator treats as suspicious.
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, ok := s.Attr("action")
		if !ok {
			return
		}
		page.FormActions = append(page.FormActions, strings.TrimSpace(action))
	})

	page.Frames = doc.Find("iframe, frame").Length()

	return page, nil
}
