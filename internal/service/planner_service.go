// planner-go/internal/service/planner_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/cache"
	"github.com/andresuchdata/autopo-py/planner-go/internal/calendar"
	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/allocator"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/projection"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/schedule"
	"github.com/rs/zerolog/log"
)

const defaultCalendarDays = 28

// PlanParams are the per-request knobs. Nil pointers fall back to the
// planning config.
type PlanParams struct {
	AsOf         time.Time `json:"as_of" form:"as_of" time_format:"2006-01-02"`
	Cycles       *int      `json:"cycles,omitempty" form:"cycles"`
	PeriodDays   *int      `json:"period_days,omitempty" form:"period_days"`
	Incoming     string    `json:"incoming_policy,omitempty" form:"incoming_policy"`
	Priority     string    `json:"priority,omitempty" form:"priority"`
	Jitter       *bool     `json:"jitter,omitempty" form:"jitter"`
	CalendarDays int       `json:"calendar_days,omitempty" form:"calendar_days"`
}

// ResolvedParams is PlanParams after defaults; it is part of the cache key.
type ResolvedParams struct {
	AsOf         string `json:"as_of"`
	Cycles       int    `json:"cycles"`
	PeriodDays   int    `json:"period_days"`
	Incoming     string `json:"incoming_policy"`
	Priority     string `json:"priority"`
	Jitter       bool   `json:"jitter"`
	CalendarDays int    `json:"calendar_days"`
}

// Summary counts terminal statuses across all projections.
type Summary struct {
	Positions          int     `json:"positions"`
	OutOfStock         int     `json:"out_of_stock"`
	NeedsQuantity      int     `json:"needs_quantity"`
	Covered            int     `json:"covered"`
	ZeroDemand         int     `json:"zero_demand"`
	Empty              int     `json:"empty"`
	TotalReplenishment float64 `json:"total_replenishment_qty"`
	Repairs            int     `json:"repairs"`
}

// Result is everything one planning run produces. Sections whose inputs are
// missing stay empty and their tables are listed in Pending.
type Result struct {
	Fingerprint string         `json:"fingerprint"`
	Cached      bool           `json:"cached"`
	Params      ResolvedParams `json:"params"`
	Summary     Summary        `json:"summary"`

	Projections     []domain.Projection         `json:"projections,omitempty"`
	Warehouses      []allocator.WarehouseDemand `json:"warehouse_allocation,omitempty"`
	Hubs            []allocator.HubDemand       `json:"hub_allocation,omitempty"`
	EOQ             []eoq.Result                `json:"eoq,omitempty"`
	MOV             []eoq.MOVShortfall          `json:"mov_shortfall,omitempty"`
	Schedule        *schedule.Plan              `json:"schedule,omitempty"`
	DailySummary    []schedule.DailyTotal       `json:"daily_summary,omitempty"`
	SKUAssignments  []schedule.SKUAssignment    `json:"sku_assignments,omitempty"`
	InboundCalendar *schedule.InboundCalendar   `json:"inbound_calendar,omitempty"`

	Pending []string        `json:"pending,omitempty"`
	Issues  []domain.Issue  `json:"issues,omitempty"`
	Repairs []domain.Repair `json:"repairs,omitempty"`
}

type PlannerService struct {
	cfg   config.PlanningConfig
	cache cache.PlanCache
}

func NewPlannerService(cfg config.PlanningConfig, planCache cache.PlanCache) *PlannerService {
	if planCache == nil {
		planCache = cache.NewNoopPlanCache()
	}
	return &PlannerService{cfg: cfg, cache: planCache}
}

func (s *PlannerService) Config() config.PlanningConfig { return s.cfg }

// Resolve applies config defaults and validates the named policies.
func (s *PlannerService) Resolve(p PlanParams) (ResolvedParams, error) {
	asOf := p.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
		log.Warn().Str("as_of", asOf.Format("2006-01-02")).Msg("No as-of date given, defaulting to today")
	}
	r := ResolvedParams{
		AsOf:         domain.DateOnly(asOf).Format("2006-01-02"),
		Cycles:       s.cfg.Cycles,
		PeriodDays:   s.cfg.PeriodDays,
		Incoming:     s.cfg.IncomingPolicy,
		Priority:     s.cfg.Schedule.Priority,
		Jitter:       s.cfg.Jitter.Enabled,
		CalendarDays: p.CalendarDays,
	}
	if p.Cycles != nil {
		r.Cycles = *p.Cycles
	}
	if p.PeriodDays != nil {
		r.PeriodDays = *p.PeriodDays
	}
	if p.Incoming != "" {
		r.Incoming = p.Incoming
	}
	if p.Priority != "" {
		r.Priority = p.Priority
	}
	if p.Jitter != nil {
		r.Jitter = *p.Jitter
	}
	if r.CalendarDays <= 0 {
		r.CalendarDays = defaultCalendarDays
	}
	if r.Cycles < 0 {
		return r, fmt.Errorf("cycles must not be negative")
	}

	incoming, err := projection.ParseIncomingPolicy(r.Incoming)
	if err != nil {
		return r, err
	}
	r.Incoming = string(incoming)
	priority, err := schedule.ParsePriority(r.Priority)
	if err != nil {
		return r, err
	}
	r.Priority = string(priority)
	return r, nil
}

// Plan runs the whole chain over one dataset: allocation, projection, EOQ,
// scheduling and the inbound calendar.
func (s *PlannerService) Plan(ctx context.Context, tables map[ingest.Kind]*ingest.Table, params PlanParams) (*Result, error) {
	resolved, err := s.Resolve(params)
	if err != nil {
		return nil, err
	}
	asOf, _ := time.Parse("2006-01-02", resolved.AsOf)

	fingerprint := Fingerprint(tables, resolved)
	var cached Result
	if hit, err := s.cache.Get(ctx, fingerprint, &cached); err != nil {
		log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Plan cache read failed")
	} else if hit {
		cached.Cached = true
		return &cached, nil
	}

	parsed, err := ingest.Parse(ctx, tables, ingest.Options{
		AsOf:                    asOf,
		MalformedDateOffsetDays: s.cfg.MalformedDateOffsetDays,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Fingerprint: fingerprint,
		Params:      resolved,
		Issues:      parsed.Issues,
		Repairs:     parsed.Repairs,
	}
	run := &planRun{svc: s, res: res, parsed: parsed, asOf: asOf, params: resolved}
	if parsed.Has(ingest.KindHoliday) {
		run.cal = calendar.New(parsed.Holidays)
	}

	run.allocateDemand()
	run.project()
	run.sizeOrders()
	run.schedule()
	run.inboundCalendar()
	res.Summary.Repairs = len(res.Repairs)

	log.Info().
		Str("as_of", resolved.AsOf).
		Int("positions", res.Summary.Positions).
		Int("eoq_items", len(res.EOQ)).
		Strs("pending", res.Pending).
		Msg("Plan computed")

	if err := s.cache.Set(ctx, fingerprint, res); err != nil {
		log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Plan cache write failed")
	}
	return res, nil
}

// DynamicEOQ fills unset cost parameters from the EOQ config.
func (s *PlannerService) DynamicEOQ(p eoq.DynamicParams) float64 {
	if p.SafetyFactor == 0 {
		p.SafetyFactor = s.cfg.EOQ.SafetyFactor
	}
	if p.LaborCostPerHour == 0 {
		p.LaborCostPerHour = s.cfg.EOQ.LaborCostPerHour
	}
	if p.HoursPerOrder == 0 {
		p.HoursPerOrder = s.cfg.EOQ.HoursPerOrder
	}
	if p.HoldingCostRate == 0 {
		p.HoldingCostRate = s.cfg.EOQ.HoldingCostRate
	}
	return eoq.DynamicEOQ(p)
}
