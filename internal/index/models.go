package index

import "time"

// Company is a classified company in the universe.
type Company struct {
	ID               int        `json:"id"`
	Ticker           string     `json:"ticker"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	MarketCap        int64      `json:"market_cap"`
	SpaceScore       float64    `json:"space_score"` // space revenue pct from the classifier
	Segments         []string   `json:"segments,omitempty"`
	LastClassifiedAt *time.Time `json:"last_classified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Fundamental is a point-in-time fundamentals snapshot for a company.
type Fundamental struct {
	ID               int       `json:"id"`
	CompanyID        int       `json:"company_id"`
	Date             time.Time `json:"date"`
	Revenue          int64     `json:"revenue"`
	RevenueGrowthYoY float64   `json:"revenue_growth_yoy"`
	MarketCap        int64     `json:"market_cap"`
	Price            float64   `json:"price"`
	Volume           int64     `json:"volume"`
	CreatedAt        time.Time `json:"created_at"`
}

// CompositionRow is one persisted constituent of an index composition.
type CompositionRow struct {
	ID                int       `json:"id"`
	IndexName         string    `json:"index_name"`
	RebalanceDate     time.Time `json:"rebalance_date"`
	CompanyID         int       `json:"company_id"`
	Ticker            string    `json:"ticker"`
	CompanyName       string    `json:"company_name"`
	Weight            float64   `json:"weight"`
	Rank              int       `json:"rank"`
	SpaceRevenuePct   float64   `json:"space_revenue_pct"`
	RevenueGrowthRate float64   `json:"revenue_growth_rate"`
	MarketCap         int64     `json:"market_cap"`
	Segments          []string  `json:"segments,omitempty"`
}

// PerformancePoint is one daily index value.
type PerformancePoint struct {
	IndexName   string    `json:"index_name"`
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	DailyReturn float64   `json:"daily_return"`
}

// Info summarizes one index for the API.
type Info struct {
	Name            string     `json:"name"`
	NumConstituents int        `json:"num_constituents"`
	TotalMarketCap  float64    `json:"total_market_cap"`
	LastRebalance   *time.Time `json:"last_rebalance,omitempty"`
}
