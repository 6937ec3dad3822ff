package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// PositionFilter narrows a stock snapshot. Empty slices mean no restriction.
type PositionFilter struct {
	SnapshotDate time.Time
	LocationIDs  []int64
	VendorNames  []string
	ProductIDs   []int64
}

// PlanRun is the persisted summary of one planning run.
type PlanRun struct {
	Fingerprint        string    `db:"fingerprint"`
	AsOf               time.Time `db:"as_of"`
	Positions          int       `db:"positions"`
	OutOfStock         int       `db:"out_of_stock"`
	NeedsQuantity      int       `db:"needs_quantity"`
	TotalReplenishment float64   `db:"total_replenishment"`
	Pending            []string  `db:"-"`
	CreatedAt          time.Time `db:"created_at"`
}

// PlanningRepository is the database-backed source of planner inputs.
type PlanningRepository interface {
	ListPositions(ctx context.Context, filter PositionFilter) ([]domain.StockPosition, error)
	ListHubHistory(ctx context.Context, snapshotDate time.Time, warehouseIDs []int64) ([]domain.HubHistory, error)
	LatestSnapshotDate(ctx context.Context) (time.Time, error)
	SavePlanRun(ctx context.Context, run PlanRun) error
}
