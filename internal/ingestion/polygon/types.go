package polygon

// Response payloads for the Polygon.io endpoints the backend consumes.

// TickerDetails describes one listed company.
type TickerDetails struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	MarketCap       int64  `json:"market_cap"`
	Description     string `json:"description"`
	PrimaryExchange string `json:"primary_exchange"`
	Locale          string `json:"locale"`
}

type tickerDetailsResponse struct {
	Results TickerDetails `json:"results"`
}

// TickerSearchResult is one row of a reference ticker search.
type TickerSearchResult struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Active          bool   `json:"active"`
}

type searchTickersResponse struct {
	Results []TickerSearchResult `json:"results"`
}

// AggregateBar is one OHLCV bar.
type AggregateBar struct {
	Timestamp    int64   `json:"t"` // milliseconds
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	VWAP         float64 `json:"vw"`
	Transactions int64   `json:"n"`
}

type aggregatesResponse struct {
	Results []AggregateBar `json:"results"`
}

// Financial is one reported fiscal period.
type Financial struct {
	FiscalYear   string               `json:"fiscal_year"`
	FiscalPeriod string               `json:"fiscal_period"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	Financials   *FinancialStatements `json:"financials"`
}

// FinancialStatements groups the statement sections we read.
type FinancialStatements struct {
	IncomeStatement *IncomeStatement `json:"income_statement"`
}

// IncomeStatement carries the revenue line used for growth calculation.
type IncomeStatement struct {
	Revenues      *FinancialValue `json:"revenues"`
	GrossProfit   *FinancialValue `json:"gross_profit"`
	NetIncomeLoss *FinancialValue `json:"net_income_loss"`
}

// FinancialValue is a reported number with its unit.
type FinancialValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type financialsResponse struct {
	Results []Financial `json:"results"`
}
