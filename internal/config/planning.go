package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// PlanningConfig carries every business constant the planner uses. Nothing in
// the planning packages embeds warehouse IDs, ratios or capacities directly.
type PlanningConfig struct {
	DOIPolicyDays           float64 `mapstructure:"doi_policy_days"`
	PeriodDays              int     `mapstructure:"period_days"`
	Cycles                  int     `mapstructure:"cycles"`
	DefaultLeadTimeDays     int     `mapstructure:"default_lead_time_days"`
	DefaultCoverageGapDays  int     `mapstructure:"default_coverage_gap_days"`
	MalformedDateOffsetDays int     `mapstructure:"malformed_date_offset_days"`
	IncomingPolicy          string  `mapstructure:"incoming_policy"`
	ForecastWindowDays      int     `mapstructure:"forecast_window_days"`
	DefaultDailyCapacity    float64 `mapstructure:"default_daily_capacity"`

	Jitter     JitterConfig      `mapstructure:"jitter"`
	EOQ        EOQConfig         `mapstructure:"eoq"`
	Schedule   ScheduleConfig    `mapstructure:"schedule"`
	Warehouses []WarehouseConfig `mapstructure:"warehouses"`
	Categories []CategoryRoute   `mapstructure:"categories"`
	Hubs       []HubConfig       `mapstructure:"hubs"`

	ExcludedHubs       []int64 `mapstructure:"excluded_hubs"`
	ExcludedWarehouses []int64 `mapstructure:"excluded_warehouses"`
}

// JitterConfig enables the seeded fallback-demand perturbation. Disabled means
// fallback demand is used as is.
type JitterConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Seed    uint64  `mapstructure:"seed"`
	Low     float64 `mapstructure:"low"`
	High    float64 `mapstructure:"high"`
}

type EOQConfig struct {
	PeriodDays           float64 `mapstructure:"period_days"`
	SafetyFactor         float64 `mapstructure:"safety_factor"`
	InflateDemand        bool    `mapstructure:"inflate_demand"`
	MaxOrdersPerPeriod   float64 `mapstructure:"max_orders_per_period"`
	MinDOIDays           float64 `mapstructure:"min_doi_days"`
	LeadTimeDays         float64 `mapstructure:"lead_time_days"`
	HoldingCostRate      float64 `mapstructure:"holding_cost_rate"`
	LaborCostPerHour     float64 `mapstructure:"labor_cost_per_hour"`
	HoursPerOrder        float64 `mapstructure:"hours_per_order"`
	SafetyStockBeforeMOV bool    `mapstructure:"safety_stock_before_mov"`
}

type ScheduleConfig struct {
	Priority string `mapstructure:"priority"`
}

type WarehouseConfig struct {
	ID            int64   `mapstructure:"id"`
	Name          string  `mapstructure:"name"`
	DailyCapacity float64 `mapstructure:"daily_capacity"`
}

type CategoryRoute struct {
	Category   string           `mapstructure:"category"`
	Warehouses []WarehouseShare `mapstructure:"warehouses"`
}

type WarehouseShare struct {
	ID    int64   `mapstructure:"id"`
	Ratio float64 `mapstructure:"ratio"`
}

type HubConfig struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// LoadPlanning reads the planning section of a YAML/JSON/TOML file. An empty
// path yields the built-in defaults.
func LoadPlanning(path string) (PlanningConfig, error) {
	v := viper.New()
	setPlanningDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return PlanningConfig{}, fmt.Errorf("failed to read planning config %s: %w", path, err)
		}
	}

	var wrapper struct {
		Planning PlanningConfig `mapstructure:"planning"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return PlanningConfig{}, fmt.Errorf("failed to decode planning config: %w", err)
	}

	cfg := wrapper.Planning
	def := DefaultPlanning()
	if len(cfg.Warehouses) == 0 {
		cfg.Warehouses = def.Warehouses
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	}
	if len(cfg.Hubs) == 0 {
		cfg.Hubs = def.Hubs
	}
	if cfg.ExcludedHubs == nil {
		cfg.ExcludedHubs = def.ExcludedHubs
	}
	if cfg.ExcludedWarehouses == nil {
		cfg.ExcludedWarehouses = def.ExcludedWarehouses
	}
	return cfg, nil
}

func setPlanningDefaults(v *viper.Viper) {
	def := DefaultPlanning()
	v.SetDefault("planning.doi_policy_days", def.DOIPolicyDays)
	v.SetDefault("planning.period_days", def.PeriodDays)
	v.SetDefault("planning.cycles", def.Cycles)
	v.SetDefault("planning.default_lead_time_days", def.DefaultLeadTimeDays)
	v.SetDefault("planning.default_coverage_gap_days", def.DefaultCoverageGapDays)
	v.SetDefault("planning.malformed_date_offset_days", def.MalformedDateOffsetDays)
	v.SetDefault("planning.incoming_policy", def.IncomingPolicy)
	v.SetDefault("planning.forecast_window_days", def.ForecastWindowDays)
	v.SetDefault("planning.default_daily_capacity", def.DefaultDailyCapacity)
	v.SetDefault("planning.jitter.enabled", def.Jitter.Enabled)
	v.SetDefault("planning.jitter.seed", def.Jitter.Seed)
	v.SetDefault("planning.jitter.low", def.Jitter.Low)
	v.SetDefault("planning.jitter.high", def.Jitter.High)
	v.SetDefault("planning.eoq.period_days", def.EOQ.PeriodDays)
	v.SetDefault("planning.eoq.safety_factor", def.EOQ.SafetyFactor)
	v.SetDefault("planning.eoq.inflate_demand", def.EOQ.InflateDemand)
	v.SetDefault("planning.eoq.max_orders_per_period", def.EOQ.MaxOrdersPerPeriod)
	v.SetDefault("planning.eoq.min_doi_days", def.EOQ.MinDOIDays)
	v.SetDefault("planning.eoq.lead_time_days", def.EOQ.LeadTimeDays)
	v.SetDefault("planning.eoq.holding_cost_rate", def.EOQ.HoldingCostRate)
	v.SetDefault("planning.eoq.labor_cost_per_hour", def.EOQ.LaborCostPerHour)
	v.SetDefault("planning.eoq.hours_per_order", def.EOQ.HoursPerOrder)
	v.SetDefault("planning.eoq.safety_stock_before_mov", def.EOQ.SafetyStockBeforeMOV)
	v.SetDefault("planning.schedule.priority", def.Schedule.Priority)
}

// DefaultPlanning mirrors the constants the planning team runs with today.
func DefaultPlanning() PlanningConfig {
	return PlanningConfig{
		DOIPolicyDays:           3,
		PeriodDays:              7,
		Cycles:                  2,
		DefaultLeadTimeDays:     2,
		DefaultCoverageGapDays:  7,
		MalformedDateOffsetDays: 14,
		IncomingPolicy:          "ospo",
		ForecastWindowDays:      6,
		DefaultDailyCapacity:    165000,
		Jitter: JitterConfig{
			Seed: 42,
			Low:  -0.2,
			High: 0.1,
		},
		EOQ: EOQConfig{
			PeriodDays:           365,
			SafetyFactor:         1.65,
			InflateDemand:        true,
			MaxOrdersPerPeriod:   12,
			MinDOIDays:           3,
			LeadTimeDays:         2,
			HoldingCostRate:      0.18,
			LaborCostPerHour:     15000,
			HoursPerOrder:        1,
			SafetyStockBeforeMOV: true,
		},
		Schedule: ScheduleConfig{Priority: "largest_first"},
		Warehouses: []WarehouseConfig{
			{ID: 40, Name: "KOS - WH Kosambi", DailyCapacity: 115000},
			{ID: 772, Name: "STL - Sentul", DailyCapacity: 165000},
			{ID: 160, Name: "PGS - Pegangsaan", DailyCapacity: 165000},
			{ID: 661, Name: "CBN - WH Cibinong", DailyCapacity: 165000},
		},
		Categories: []CategoryRoute{
			{Category: "Dry", Warehouses: []WarehouseShare{{ID: 772, Ratio: 1.0 / 3}, {ID: 40, Ratio: 2.0 / 3}}},
			{Category: "CBN", Warehouses: []WarehouseShare{{ID: 661, Ratio: 1}}},
			{Category: "PGS", Warehouses: []WarehouseShare{{ID: 160, Ratio: 1}}},
		},
		Hubs: []HubConfig{
			{ID: 98, Name: "MTG - Menteng"},
			{ID: 121, Name: "BS9 - Bintaro Sektor 9"},
			{ID: 125, Name: "PPN - Pos Pengumben"},
			{ID: 152, Name: "LBB - Lebak Bulus"},
			{ID: 189, Name: "SRP - Serpong Utara"},
			{ID: 201, Name: "MSB - Medan Satria Bekasi"},
			{ID: 206, Name: "JTB - Jatibening"},
			{ID: 207, Name: "GWB - Grand Wisata Bekasi"},
			{ID: 223, Name: "CT2 - Citra 2"},
			{ID: 261, Name: "CNR - Cinere"},
			{ID: 288, Name: "MRG - Margonda"},
			{ID: 517, Name: "FTW - Fatmawati"},
			{ID: 523, Name: "JLB - Jelambar"},
			{ID: 529, Name: "BSX - New BSD"},
			{ID: 591, Name: "MRY - Meruya"},
			{ID: 615, Name: "GPL - Gudang Peluru"},
			{ID: 619, Name: "TSY - Transyogi"},
			{ID: 626, Name: "DST - Duren Sawit"},
			{ID: 634, Name: "PPL - Panglima Polim"},
			{ID: 648, Name: "DNS - Danau Sunter"},
			{ID: 654, Name: "TGX - New TGC"},
			{ID: 657, Name: "APR - Ampera"},
			{ID: 669, Name: "BRY - Buncit Raya"},
			{ID: 672, Name: "KPM - Kapuk Muara"},
			{ID: 763, Name: "PSG - Pisangan"},
			{ID: 767, Name: "PKC - Pondok Kacang"},
			{ID: 773, Name: "PGD - Pulo Gadung"},
			{ID: 776, Name: "BGS - Boulevard Gading Serpong"},
		},
		ExcludedHubs:       []int64{537, 758},
		ExcludedWarehouses: []int64{583},
	}
}

// Capacities returns the daily intake cap per warehouse location.
func (p PlanningConfig) Capacities() map[int64]float64 {
	out := make(map[int64]float64, len(p.Warehouses))
	for _, wh := range p.Warehouses {
		if wh.DailyCapacity > 0 {
			out[wh.ID] = wh.DailyCapacity
		}
	}
	return out
}

func (p PlanningConfig) WarehouseName(id int64) string {
	for _, wh := range p.Warehouses {
		if wh.ID == id {
			return wh.Name
		}
	}
	return ""
}

func (p PlanningConfig) HubName(id int64) string {
	for _, h := range p.Hubs {
		if h.ID == id {
			return h.Name
		}
	}
	return ""
}
