package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tickerRe = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)

// ScrapeScreener fetches the screener page and extracts ticker/name
// pairs from its listing table.
func (d *Discoverer) ScrapeScreener(ctx context.Context) ([]Candidate, error) {
	resp, err := d.httpClient.Get(ctx, d.screenerURL)
	if err != nil {
		return nil, fmt.Errorf("fetch screener: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("screener returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read screener body: %w", err)
	}

	candidates := parseScreenerHTML(string(body))
	d.logger.WithField("count", len(candidates)).Debug("Scraped screener")
	return candidates, nil
}

// parseScreenerHTML pulls candidates out of the first table whose rows
// start with a ticker-looking cell.
func parseScreenerHTML(html string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []Candidate
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		// Screener layouts put the symbol in the first or second cell,
		// sometimes behind a row-number column.
		ticker := strings.TrimSpace(cells.Eq(0).Text())
		nameIdx := 1
		if !tickerRe.MatchString(ticker) && cells.Length() >= 3 {
			ticker = strings.TrimSpace(cells.Eq(1).Text())
			nameIdx = 2
		}
		if !tickerRe.MatchString(ticker) {
			return
		}

		name := strings.TrimSpace(cells.Eq(nameIdx).Text())
		if name == "" {
			return
		}

		candidates = append(candidates, Candidate{
			Ticker: ticker,
			Name:   name,
			Source: "screener",
		})
	})

	return candidates
}
