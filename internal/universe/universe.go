// Package universe discovers candidate tickers for classification. It
// merges a curated seed list, a scraped stock screener and Polygon
// keyword searches into one deduplicated candidate set.
package universe

import (
	"context"
	"sort"
	"strings"

	"github.com/futureeconomy/indices/internal/ingestion/polygon"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
)

// DefaultScreenerURL lists publicly traded space companies.
const DefaultScreenerURL = "https://stockanalysis.com/list/space-stocks/"

// Keywords searched against the Polygon reference API.
var searchKeywords = []string{
	"space",
	"satellite",
	"aerospace",
	"rocket",
}

// seedTickers are companies known to belong in the candidate set even
// when screeners and keyword search miss them.
var seedTickers = map[string]string{
	"ASTS": "AST SpaceMobile",
	"RKLB": "Rocket Lab",
	"IRDM": "Iridium Communications",
	"GSAT": "Globalstar",
	"SPCE": "Virgin Galactic",
	"PL":   "Planet Labs",
	"BKSY": "BlackSky Technology",
	"SPIR": "Spire Global",
	"LUNR": "Intuitive Machines",
	"RDW":  "Redwire",
	"SATS": "EchoStar",
	"VSAT": "Viasat",
}

// Candidate is one discovered ticker and where it came from.
type Candidate struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Source string `json:"source"` // seed, screener, search
}

// TickerSearcher is the reference-search surface the discoverer needs.
type TickerSearcher interface {
	SearchTickers(ctx context.Context, market, search string, active bool, limit int) ([]polygon.TickerSearchResult, error)
}

// Discoverer assembles the candidate universe.
type Discoverer struct {
	httpClient  *httputil.Client
	searcher    TickerSearcher
	logger      *logger.Logger
	screenerURL string
}

// NewDiscoverer creates a discoverer. The searcher is optional; without
// it keyword search is skipped.
func NewDiscoverer(httpClient *httputil.Client, searcher TickerSearcher, log *logger.Logger) *Discoverer {
	return &Discoverer{
		httpClient:  httpClient,
		searcher:    searcher,
		logger:      log,
		screenerURL: DefaultScreenerURL,
	}
}

// WithScreenerURL overrides the screener page.
func (d *Discoverer) WithScreenerURL(url string) *Discoverer {
	d.screenerURL = url
	return d
}

// Discover merges all sources. Seed entries always survive; scrape or
// search failures degrade to the remaining sources instead of aborting.
func (d *Discoverer) Discover(ctx context.Context) ([]Candidate, error) {
	seen := make(map[string]Candidate)

	for ticker, name := range seedTickers {
		seen[ticker] = Candidate{Ticker: ticker, Name: name, Source: "seed"}
	}

	scraped, err := d.ScrapeScreener(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Screener scrape failed, continuing with other sources")
	}
	merge(seen, scraped)

	if d.searcher != nil {
		for _, keyword := range searchKeywords {
			results, err := d.searcher.SearchTickers(ctx, "stocks", keyword, true, 100)
			if err != nil {
				d.logger.WithError(err).WithField("keyword", keyword).Warn("Keyword search failed")
				continue
			}

			candidates := make([]Candidate, 0, len(results))
			for _, r := range results {
				candidates = append(candidates, Candidate{
					Ticker: strings.ToUpper(r.Ticker),
					Name:   r.Name,
					Source: "search",
				})
			}
			merge(seen, candidates)
		}
	}

	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })

	d.logger.WithField("count", len(out)).Info("Candidate universe assembled")
	return out, nil
}

// merge adds candidates that are not already present. Earlier sources
// win so seed names are never overwritten.
func merge(seen map[string]Candidate, candidates []Candidate) {
	for _, c := range candidates {
		if c.Ticker == "" {
			continue
		}
		if _, ok := seen[c.Ticker]; !ok {
			seen[c.Ticker] = c
		}
	}
}
