package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Repository handles persistence for companies, fundamentals,
// index compositions, and performance history.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertCompany inserts a company or updates it by ticker, returning its id.
func (r *Repository) UpsertCompany(ctx context.Context, company *Company) (int, error) {
	query := `
		INSERT INTO companies (
			ticker,
			name,
			description,
			market_cap,
			space_score,
			segments,
			last_classified_at,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			market_cap = EXCLUDED.market_cap,
			space_score = EXCLUDED.space_score,
			segments = EXCLUDED.segments,
			last_classified_at = COALESCE(EXCLUDED.last_classified_at, companies.last_classified_at),
			updated_at = NOW()
		RETURNING id
	`

	var id int
	err := r.db.QueryRow(ctx, query,
		company.Ticker,
		company.Name,
		company.Description,
		company.MarketCap,
		company.SpaceScore,
		company.Segments,
		company.LastClassifiedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert company %s: %w", company.Ticker, err)
	}

	return id, nil
}

// GetCompanyByTicker retrieves one company by its ticker.
func (r *Repository) GetCompanyByTicker(ctx context.Context, ticker string) (*Company, error) {
	query := `
		SELECT
			id, ticker, name,
			COALESCE(description, ''),
			COALESCE(market_cap, 0),
			COALESCE(space_score, 0),
			COALESCE(segments, '{}'),
			last_classified_at,
			created_at, updated_at
		FROM companies
		WHERE ticker = $1
	`

	company := &Company{}
	err := r.db.QueryRow(ctx, query, ticker).Scan(
		&company.ID,
		&company.Ticker,
		&company.Name,
		&company.Description,
		&company.MarketCap,
		&company.SpaceScore,
		&company.Segments,
		&company.LastClassifiedAt,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query company %s: %w", ticker, err)
	}

	return company, nil
}

// ListCompanies retrieves all companies ordered by ticker.
func (r *Repository) ListCompanies(ctx context.Context) ([]Company, error) {
	return r.listCompanies(ctx, 0)
}

// ListEligibleCompanies retrieves companies whose space score meets the
// index inclusion threshold.
func (r *Repository) ListEligibleCompanies(ctx context.Context, minSpaceScore float64) ([]Company, error) {
	return r.listCompanies(ctx, minSpaceScore)
}

func (r *Repository) listCompanies(ctx context.Context, minSpaceScore float64) ([]Company, error) {
	query := `
		SELECT
			id, ticker, name,
			COALESCE(description, ''),
			COALESCE(market_cap, 0),
			COALESCE(space_score, 0),
			COALESCE(segments, '{}'),
			last_classified_at,
			created_at, updated_at
		FROM companies
		WHERE space_score >= $1
		ORDER BY ticker
	`

	rows, err := r.db.Query(ctx, query, minSpaceScore)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(
			&c.ID, &c.Ticker, &c.Name,
			&c.Description, &c.MarketCap, &c.SpaceScore, &c.Segments,
			&c.LastClassifiedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}

// InsertFundamental saves a fundamentals snapshot, replacing any existing
// row for the same company and date.
func (r *Repository) InsertFundamental(ctx context.Context, f *Fundamental) error {
	query := `
		INSERT INTO fundamentals (
			company_id,
			date,
			revenue,
			revenue_growth_yoy,
			market_cap,
			price,
			volume,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (company_id, date) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			revenue_growth_yoy = EXCLUDED.revenue_growth_yoy,
			market_cap = EXCLUDED.market_cap,
			price = EXCLUDED.price,
			volume = EXCLUDED.volume
	`

	_, err := r.db.Exec(ctx, query,
		f.CompanyID, f.Date, f.Revenue, f.RevenueGrowthYoY,
		f.MarketCap, f.Price, f.Volume,
	)
	if err != nil {
		return fmt.Errorf("insert fundamental for company %d: %w", f.CompanyID, err)
	}

	return nil
}

// LatestFundamental retrieves the most recent fundamentals snapshot for
// a company, or ErrNotFound when none exists.
func (r *Repository) LatestFundamental(ctx context.Context, companyID int) (*Fundamental, error) {
	query := `
		SELECT
			id, company_id, date,
			COALESCE(revenue, 0),
			COALESCE(revenue_growth_yoy, 0),
			COALESCE(market_cap, 0),
			COALESCE(price, 0),
			COALESCE(volume, 0),
			created_at
		FROM fundamentals
		WHERE company_id = $1
		ORDER BY date DESC
		LIMIT 1
	`

	f := &Fundamental{}
	err := r.db.QueryRow(ctx, query, companyID).Scan(
		&f.ID, &f.CompanyID, &f.Date,
		&f.Revenue, &f.RevenueGrowthYoY, &f.MarketCap, &f.Price, &f.Volume,
		&f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest fundamental for company %d: %w", companyID, err)
	}

	return f, nil
}

// SaveComposition replaces the composition of an index for a rebalance
// date. Delete and insert run in one transaction so readers never see a
// partial composition.
func (r *Repository) SaveComposition(ctx context.Context, indexName string, rebalanceDate time.Time, rows []CompositionRow) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin composition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM index_compositions WHERE index_name = $1 AND rebalance_date = $2`,
		indexName, rebalanceDate,
	)
	if err != nil {
		return fmt.Errorf("clear composition: %w", err)
	}

	query := `
		INSERT INTO index_compositions (
			index_name,
			rebalance_date,
			company_id,
			ticker,
			company_name,
			weight,
			rank,
			space_revenue_pct,
			revenue_growth_rate,
			market_cap,
			segments
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, row := range rows {
		_, err = tx.Exec(ctx, query,
			indexName, rebalanceDate,
			row.CompanyID, row.Ticker, row.CompanyName,
			row.Weight, row.Rank,
			row.SpaceRevenuePct, row.RevenueGrowthRate, row.MarketCap,
			row.Segments,
		)
		if err != nil {
			return fmt.Errorf("insert constituent %s: %w", row.Ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit composition: %w", err)
	}

	return nil
}

// CurrentComposition retrieves the latest composition of an index.
func (r *Repository) CurrentComposition(ctx context.Context, indexName string) ([]CompositionRow, error) {
	return r.compositionAsOf(ctx, indexName, time.Now().UTC())
}

// CompositionAsOf retrieves the composition in effect on a given date.
func (r *Repository) CompositionAsOf(ctx context.Context, indexName string, asOf time.Time) ([]CompositionRow, error) {
	return r.compositionAsOf(ctx, indexName, asOf)
}

func (r *Repository) compositionAsOf(ctx context.Context, indexName string, asOf time.Time) ([]CompositionRow, error) {
	query := `
		SELECT
			id, index_name, rebalance_date,
			company_id, ticker, company_name,
			weight, rank,
			space_revenue_pct, revenue_growth_rate, market_cap,
			COALESCE(segments, '{}')
		FROM index_compositions
		WHERE index_name = $1
		  AND rebalance_date = (
			SELECT MAX(rebalance_date)
			FROM index_compositions
			WHERE index_name = $1 AND rebalance_date <= $2
		  )
		ORDER BY rank
	`

	rows, err := r.db.Query(ctx, query, indexName, asOf)
	if err != nil {
		return nil, fmt.Errorf("query composition for %s: %w", indexName, err)
	}
	defer rows.Close()

	var composition []CompositionRow
	for rows.Next() {
		var row CompositionRow
		if err := rows.Scan(
			&row.ID, &row.IndexName, &row.RebalanceDate,
			&row.CompanyID, &row.Ticker, &row.CompanyName,
			&row.Weight, &row.Rank,
			&row.SpaceRevenuePct, &row.RevenueGrowthRate, &row.MarketCap,
			&row.Segments,
		); err != nil {
			return nil, fmt.Errorf("scan constituent: %w", err)
		}
		composition = append(composition, row)
	}

	return composition, rows.Err()
}

// InsertPerformancePoint appends one daily index value.
func (r *Repository) InsertPerformancePoint(ctx context.Context, p *PerformancePoint) error {
	query := `
		INSERT INTO index_performance (index_name, date, value, daily_return)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (index_name, date) DO UPDATE SET
			value = EXCLUDED.value,
			daily_return = EXCLUDED.daily_return
	`

	_, err := r.db.Exec(ctx, query, p.IndexName, p.Date, p.Value, p.DailyReturn)
	if err != nil {
		return fmt.Errorf("insert performance point for %s: %w", p.IndexName, err)
	}

	return nil
}

// PerformanceRange retrieves index values between two dates, inclusive.
func (r *Repository) PerformanceRange(ctx context.Context, indexName string, from, to time.Time) ([]PerformancePoint, error) {
	query := `
		SELECT index_name, date, value, COALESCE(daily_return, 0)
		FROM index_performance
		WHERE index_name = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.db.Query(ctx, query, indexName, from, to)
	if err != nil {
		return nil, fmt.Errorf("query performance for %s: %w", indexName, err)
	}
	defer rows.Close()

	var points []PerformancePoint
	for rows.Next() {
		var p PerformancePoint
		if err := rows.Scan(&p.IndexName, &p.Date, &p.Value, &p.DailyReturn); err != nil {
			return nil, fmt.Errorf("scan performance point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// LatestPerformance retrieves the most recent value of an index, or
// ErrNotFound when no history exists.
func (r *Repository) LatestPerformance(ctx context.Context, indexName string) (*PerformancePoint, error) {
	query := `
		SELECT index_name, date, value, COALESCE(daily_return, 0)
		FROM index_performance
		WHERE index_name = $1
		ORDER BY date DESC
		LIMIT 1
	`

	p := &PerformancePoint{}
	err := r.db.QueryRow(ctx, query, indexName).Scan(&p.IndexName, &p.Date, &p.Value, &p.DailyReturn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest performance for %s: %w", indexName, err)
	}

	return p, nil
}

// ListIndexes summarizes every index that has at least one composition.
func (r *Repository) ListIndexes(ctx context.Context) ([]Info, error) {
	query := `
		SELECT
			c.index_name,
			COUNT(*) AS num_constituents,
			SUM(c.market_cap)::float8 AS total_market_cap,
			c.rebalance_date
		FROM index_compositions c
		JOIN (
			SELECT index_name, MAX(rebalance_date) AS rebalance_date
			FROM index_compositions
			GROUP BY index_name
		) latest
		  ON latest.index_name = c.index_name
		 AND latest.rebalance_date = c.rebalance_date
		GROUP BY c.index_name, c.rebalance_date
		ORDER BY c.index_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.NumConstituents, &info.TotalMarketCap, &info.LastRebalance); err != nil {
			return nil, fmt.Errorf("scan index info: %w", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}
