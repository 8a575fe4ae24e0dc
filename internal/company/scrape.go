package company

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SiteMeta is what can be read from a company homepage
type SiteMeta struct {
	Description string
	LogoURL     string
}

// ScrapeSite reads the description and og:image of a company website. The page title is
// used when there is no description meta tag.
func ScrapeSite(ctx context.Context, client *http.Client, website string) (SiteMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return SiteMeta{}, err
	}
	res, err := client.Do(req)
	if err != nil {
		return SiteMeta{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return SiteMeta{}, fmt.Errorf("GET %s: status code error: %d %s", website, res.StatusCode, res.Status)
	}
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return SiteMeta{}, err
	}
	m := SiteMeta{Description: strings.TrimSpace(doc.Find("title").First().Text())}
	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		switch {
		case strings.EqualFold(name, "description"):
			m.Description = content
		case strings.EqualFold(property, "og:image"):
			m.LogoURL = content
		}
	})
	m.Description = strings.TrimSpace(textPolicy.Sanitize(m.Description))
	return m, nil
}
