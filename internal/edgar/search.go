package edgar

import (
	"context"
	"net/url"
	"strings"

	"secai/internal/domain"
)

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				Entity  string `json:"entity"`
				Tickers string `json:"tickers"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Autocomplete returns companies whose name or ticker matches the keys typed
// so far. Queries shorter than MinQueryLength return no companies without
// contacting EDGAR. Ranking is whatever the search index returns.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]domain.Company, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < c.cfg.MinQueryLength {
		return nil, nil
	}
	target := withQuery(c.cfg.SearchURL, url.Values{"keysTyped": {query}})
	var resp searchResponse
	if err := c.getJSON(ctx, target, "search:"+strings.ToLower(query), c.cfg.SearchTTL, &resp); err != nil {
		return nil, err
	}
	companies := make([]domain.Company, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		if h.ID == "" {
			continue
		}
		companies = append(companies, domain.Company{
			CIK:    h.ID,
			Name:   strings.TrimSpace(h.Source.Entity),
			Ticker: firstTicker(h.Source.Tickers),
		})
	}
	return companies, nil
}

func firstTicker(tickers string) string {
	t, _, _ := strings.Cut(tickers, ",")
	return strings.TrimSpace(t)
}
