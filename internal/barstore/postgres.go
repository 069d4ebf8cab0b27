package barstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// PostgresRepository implements contracts.BarRepository on Postgres.
// SSOT: daily bar persistence happens only here.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new bar repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Load retrieves the full stored bar series for a market, ordered by date
// ascending. A market with no stored history yields an empty series.
func (r *PostgresRepository) Load(ctx context.Context, marketKey string) (contracts.BarSeries, error) {
	query := `
		SELECT bar_date, open_price, high_price, low_price, close_price
		FROM crvhealth.daily_bars
		WHERE market_key = $1
		ORDER BY bar_date ASC
	`

	rows, err := r.pool.Query(ctx, query, marketKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series contracts.BarSeries
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, err
		}
		b.Date = b.Date.UTC()
		series = append(series, b)
	}
	return series, rows.Err()
}

// Save upserts a bar series for a market. Re-saving a date replaces the
// stored bar, matching the store's last-write-wins merge.
func (r *PostgresRepository) Save(ctx context.Context, marketKey string, series contracts.BarSeries) error {
	if len(series) == 0 {
		return nil
	}

	query := `
		INSERT INTO crvhealth.daily_bars (market_key, bar_date, open_price, high_price, low_price, close_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (market_key, bar_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price
	`

	for _, b := range series {
		if _, err := r.pool.Exec(ctx, query,
			marketKey, b.Date, b.Open, b.High, b.Low, b.Close,
		); err != nil {
			return err
		}
	}
	return nil
}
