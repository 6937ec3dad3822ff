package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type planningRepository struct {
	db *DB
}

func NewPlanningRepository(db *DB) repository.PlanningRepository {
	return &planningRepository{db: db}
}

// positionRow mirrors stock_positions; date columns are nullable there.
type positionRow struct {
	ProductID       int64        `db:"product_id"`
	ProductName     string       `db:"product_name"`
	LocationID      int64        `db:"location_id"`
	WarehouseID     int64        `db:"warehouse_id"`
	VendorName      string       `db:"vendor_name"`
	StockWH         float64      `db:"stock_wh"`
	OSPOQty         float64      `db:"ospo_qty"`
	OSRLQty         float64      `db:"osrl_qty"`
	OSPRQty         float64      `db:"ospr_qty"`
	HubStock        float64      `db:"hub_stock"`
	HubInTransit    float64      `db:"hub_in_transit"`
	ReorderPoint    float64      `db:"reorder_point"`
	MaxQty          float64      `db:"max_qty"`
	OrderMultiplier float64      `db:"order_multiplier"`
	AvgDailySales   float64      `db:"avg_daily_sales"`
	DOIPolicy       float64      `db:"doi_policy"`
	OrderDate       sql.NullTime `db:"order_date"`
	InboundDate     sql.NullTime `db:"inbound_date"`
	CoverageDate    sql.NullTime `db:"coverage_date"`
}

func (r positionRow) toDomain() domain.StockPosition {
	return domain.StockPosition{
		ProductID:       r.ProductID,
		ProductName:     r.ProductName,
		LocationID:      r.LocationID,
		WarehouseID:     r.WarehouseID,
		VendorName:      r.VendorName,
		StockWH:         r.StockWH,
		OSPOQty:         r.OSPOQty,
		OSRLQty:         r.OSRLQty,
		OSPRQty:         r.OSPRQty,
		HubStock:        r.HubStock,
		HubInTransit:    r.HubInTransit,
		ReorderPoint:    r.ReorderPoint,
		MaxQty:          r.MaxQty,
		OrderMultiplier: r.OrderMultiplier,
		AvgDailySales:   r.AvgDailySales,
		DOIPolicy:       r.DOIPolicy,
		OrderDate:       nullDate(r.OrderDate),
		InboundDate:     nullDate(r.InboundDate),
		CoverageDate:    nullDate(r.CoverageDate),
	}.Clipped()
}

func nullDate(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return domain.DateOnly(t.Time)
}

func (r *planningRepository) ListPositions(ctx context.Context, filter repository.PositionFilter) ([]domain.StockPosition, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	where, args := buildPositionFilterClause(filter, "sp.", 1)
	query := fmt.Sprintf(`
        SELECT
            sp.product_id,
            COALESCE(sp.product_name, '') AS product_name,
            sp.location_id,
            COALESCE(sp.warehouse_id, sp.location_id) AS warehouse_id,
            COALESCE(sp.vendor_name, '') AS vendor_name,
            COALESCE(sp.stock_wh, 0) AS stock_wh,
            COALESCE(sp.ospo_qty, 0) AS ospo_qty,
            COALESCE(sp.osrl_qty, 0) AS osrl_qty,
            COALESCE(sp.ospr_qty, 0) AS ospr_qty,
            COALESCE(sp.hub_stock, 0) AS hub_stock,
            COALESCE(sp.hub_in_transit, 0) AS hub_in_transit,
            COALESCE(sp.reorder_point, 0) AS reorder_point,
            COALESCE(sp.max_qty, 0) AS max_qty,
            COALESCE(sp.order_multiplier, 0) AS order_multiplier,
            COALESCE(sp.avg_daily_sales, 0) AS avg_daily_sales,
            COALESCE(sp.doi_policy, 0) AS doi_policy,
            sp.order_date,
            sp.inbound_date,
            sp.coverage_date
        FROM stock_positions sp
        %s
        ORDER BY sp.product_id, sp.location_id
    `, where)

	var rows []positionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list stock positions: %w", err)
	}

	out := make([]domain.StockPosition, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	log.Debug().Int("positions", len(out)).Msg("Loaded stock positions")
	return out, nil
}

func (r *planningRepository) ListHubHistory(ctx context.Context, snapshotDate time.Time, warehouseIDs []int64) ([]domain.HubHistory, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
        SELECT
            wh_id,
            hub_id,
            SUM(COALESCE(qty_so_final, 0)) AS qty_so_final,
            SUM(COALESCE(hub_qty, 0)) AS hub_qty,
            SUM(COALESCE(hub_in_transit, 0)) AS hub_in_transit
        FROM estimated_so
        WHERE snapshot_date = $1
          AND (cardinality($2::bigint[]) = 0 OR wh_id = ANY($2))
        GROUP BY wh_id, hub_id
        ORDER BY wh_id, hub_id
    `
	ids := warehouseIDs
	if ids == nil {
		ids = []int64{}
	}

	var out []domain.HubHistory
	if err := r.db.SelectContext(ctx, &out, query, domain.DateOnly(snapshotDate), pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list estimated sales orders: %w", err)
	}
	return out, nil
}

func (r *planningRepository) LatestSnapshotDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(snapshot_date) FROM stock_positions`); err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest snapshot date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, &domain.MissingInputError{Table: "stock"}
	}
	return domain.DateOnly(latest.Time), nil
}

// SavePlanRun records the run and its pending tables in one transaction.
func (r *planningRepository) SavePlanRun(ctx context.Context, run repository.PlanRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.QueryRowxContext(ctx, `
            INSERT INTO plan_runs (fingerprint, as_of, positions, out_of_stock, needs_quantity, total_replenishment, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (fingerprint)
            DO UPDATE SET created_at = EXCLUDED.created_at
            RETURNING id
        `, run.Fingerprint, domain.DateOnly(run.AsOf), run.Positions, run.OutOfStock, run.NeedsQuantity, run.TotalReplenishment, run.CreatedAt).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to upsert plan run: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_run_pending WHERE plan_run_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear pending tables: %w", err)
		}
		if len(run.Pending) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO plan_run_pending (plan_run_id, table_kind)
            SELECT $1, UNNEST($2::text[])
        `, id, pq.Array(run.Pending))
		if err != nil {
			return fmt.Errorf("failed to insert pending tables: %w", err)
		}
		return nil
	})
}
