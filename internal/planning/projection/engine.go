// Package projection replays the multi-cycle stock recurrence for each product
// at each warehouse location.
//
// For cycle i the engine derives:
//
//	max_stock[i]    = demand[i] * (doi_policy + coverage_gap[i])
//	stock[0]        = stock_wh
//	incoming[0]     = outstanding quantity chosen by IncomingPolicy
//	stock[i]        = max(0, stock[i-1] + incoming[i-1] - demand[i]*period)
//	incoming[i]     = repl[i-1]
//	repl[i]         = max(0, max_stock[i] - stock[i] - incoming[i])
//	landed_doi[i]   = max(0, (stock[i] + incoming[i] - demand[i]*period) / demand[i])
package projection

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/calendar"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// IncomingPolicy selects which outstanding quantities count as already
// inbound at cycle 0.
type IncomingPolicy string

const (
	IncomingOSPO           IncomingPolicy = "ospo"
	IncomingOSPOAndOSPR    IncomingPolicy = "ospo+ospr"
	IncomingAllOutstanding IncomingPolicy = "all"
)

func ParseIncomingPolicy(s string) (IncomingPolicy, error) {
	switch IncomingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", IncomingOSPO:
		return IncomingOSPO, nil
	case IncomingOSPOAndOSPR:
		return IncomingOSPOAndOSPR, nil
	case IncomingAllOutstanding:
		return IncomingAllOutstanding, nil
	}
	return "", fmt.Errorf("unknown incoming policy %q", s)
}

// Empty reports a position with no warehouse stock and nothing inbound under p.
func (p IncomingPolicy) Empty(pos domain.StockPosition) bool {
	return pos.IsOOS(p.Incoming(pos))
}

func (p IncomingPolicy) Incoming(pos domain.StockPosition) float64 {
	switch p {
	case IncomingOSPOAndOSPR:
		return pos.OSPOQty + pos.OSPRQty
	case IncomingAllOutstanding:
		return pos.OSPOQty + pos.OSPRQty + pos.OSRLQty
	default:
		return pos.OSPOQty
	}
}

type Params struct {
	AsOf time.Time
	// DOIPolicyDays applies to positions that do not carry their own policy.
	DOIPolicyDays float64
	// PeriodDays is the cadence between cycles. Zero or less orders every JI
	// days instead, JI being the position's order-to-coverage gap.
	PeriodDays             int
	Cycles                 int
	DefaultLeadTimeDays    int
	DefaultCoverageGapDays int
	Incoming               IncomingPolicy
	RoundToOrderMultiplier bool
}

func DefaultParams(asOf time.Time) Params {
	return Params{
		AsOf:                   domain.DateOnly(asOf),
		DOIPolicyDays:          3,
		PeriodDays:             7,
		Cycles:                 2,
		DefaultLeadTimeDays:    2,
		DefaultCoverageGapDays: 7,
		Incoming:               IncomingOSPO,
	}
}

type Engine struct {
	params   Params
	calendar *calendar.Calendar
	vendors  *domain.VendorBook
	perturb  Perturbation
}

type Option func(*Engine)

// WithCalendar enables holiday and Sunday shifting of order and inbound dates.
func WithCalendar(c *calendar.Calendar) Option {
	return func(e *Engine) { e.calendar = c }
}

// WithVendors supplies vendor lead times.
func WithVendors(v *domain.VendorBook) Option {
	return func(e *Engine) { e.vendors = v }
}

func WithPerturbation(p Perturbation) Option {
	return func(e *Engine) {
		if p != nil {
			e.perturb = p
		}
	}
}

func NewEngine(params Params, opts ...Option) *Engine {
	if params.Cycles < 0 {
		params.Cycles = 0
	}
	if params.Incoming == "" {
		params.Incoming = IncomingOSPO
	}
	params.AsOf = domain.DateOnly(params.AsOf)
	e := &Engine{params: params, perturb: None{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Params() Params { return e.params }

// Project replays cycles 0..N for one position.
func (e *Engine) Project(pos domain.StockPosition, series domain.DemandSeries) domain.Projection {
	pos = pos.Clipped()
	key := pos.Key()

	doi := pos.DOIPolicy
	if doi <= 0 {
		doi = e.params.DOIPolicyDays
	}

	base := e.baseDates(pos)
	period := e.cadence(base)

	out := domain.Projection{
		ProductID:   pos.ProductID,
		ProductName: pos.ProductName,
		LocationID:  pos.LocationID,
		VendorName:  pos.VendorName,
		DOIPolicy:   doi,
		PeriodDays:  period,
		Cycles:      make([]domain.CycleProjection, 0, e.params.Cycles+1),
	}

	for i := 0; i <= e.params.Cycles; i++ {
		cycle := e.cycleDates(base, i, period, pos.VendorName)

		demand, fromForecast := series.WindowAverage(cycle.OrderDate, period)
		if !fromForecast {
			demand = e.perturb.Perturb(demand, key, i)
		}
		demand = math.Max(0, demand)
		consumed := demand * float64(period)

		cp := domain.CycleProjection{
			Cycle:              cycle,
			AvgDailyDemand:     demand,
			DemandFromForecast: fromForecast,
			MaxStock:           demand * (doi + float64(cycle.CoverageGapDays())),
			ZeroDemand:         demand == 0,
		}

		if i == 0 {
			cp.AssumedStock = pos.StockWH
			cp.AssumedIncoming = e.params.Incoming.Incoming(pos)
		} else {
			prev := out.Cycles[i-1]
			cp.AssumedStock = math.Max(0, prev.AssumedStock+prev.AssumedIncoming-consumed)
			cp.AssumedIncoming = prev.ReplenishmentQty
		}

		repl := math.Max(0, cp.MaxStock-cp.AssumedStock-cp.AssumedIncoming)
		if e.params.RoundToOrderMultiplier && pos.OrderMultiplier > 1 && repl > 0 {
			repl = math.Ceil(repl/pos.OrderMultiplier) * pos.OrderMultiplier
		}
		cp.ReplenishmentQty = repl

		if demand > 0 {
			cp.LandedDOI = math.Max(0, (cp.AssumedStock+cp.AssumedIncoming-consumed)/demand)
		}

		out.Cycles = append(out.Cycles, cp)
	}
	return out
}

// ProjectAll projects every position against its demand series. Output is
// ordered by product then location regardless of input order.
func (e *Engine) ProjectAll(positions []domain.StockPosition, book *domain.DemandBook) []domain.Projection {
	sorted := append([]domain.StockPosition(nil), positions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].LocationID < sorted[j].LocationID
	})

	out := make([]domain.Projection, 0, len(sorted))
	for _, pos := range sorted {
		series := book.Lookup(pos.Key(), math.Max(0, pos.AvgDailySales))
		out = append(out, e.Project(pos, series))
	}
	return out
}
