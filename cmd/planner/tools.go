package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/export"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/schedule"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/urfave/cli/v2"
)

func eoqCommand() *cli.Command {
	return &cli.Command{
		Name:  "eoq",
		Usage: "Single-item dynamic EOQ; unset cost inputs come from the planning config",
		Flags: []cli.Flag{
			newPlanningConfigFlag(),
			&cli.Float64Flag{Name: "demand", Usage: "Forecast demand for the period", Required: true},
			&cli.Float64Flag{Name: "std-dev", Usage: "Demand standard deviation"},
			&cli.Float64Flag{Name: "z", Usage: "Safety factor"},
			&cli.Float64Flag{Name: "labor-cost", Usage: "Labour cost per hour"},
			&cli.Float64Flag{Name: "hours", Usage: "Hours spent per order"},
			&cli.Float64Flag{Name: "cogs", Usage: "Unit cost", Required: true},
			&cli.Float64Flag{Name: "holding-rate", Usage: "Holding cost as a fraction of COGS"},
		},
		Action: func(c *cli.Context) error {
			planning, err := config.LoadPlanning(c.String("planning-config"))
			if err != nil {
				return err
			}
			result := service.NewPlannerService(planning, nil).DynamicEOQ(eoq.DynamicParams{
				ForecastDemand:   c.Float64("demand"),
				DemandStdDev:     c.Float64("std-dev"),
				SafetyFactor:     c.Float64("z"),
				LaborCostPerHour: c.Float64("labor-cost"),
				HoursPerOrder:    c.Float64("hours"),
				COGS:             c.Float64("cogs"),
				HoldingCostRate:  c.Float64("holding-rate"),
			})
			_, err = fmt.Fprintf(c.App.Writer, "%.2f\n", result)
			return err
		},
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Expand inbound orders into a per-day calendar on each vendor's inbound weekdays",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "orders", Usage: "Inbound order table (csv/xlsx)", Required: true},
			&cli.StringFlag{Name: "vendors", Usage: "Vendor table with inbound_day (csv/xlsx)", Required: true},
			&cli.StringFlag{Name: "from", Usage: "First date (YYYY-MM-DD); today if empty"},
			&cli.IntFlag{Name: "days", Usage: "Calendar length in days", Value: 28},
			&cli.StringFlag{Name: "out", Usage: "Write to this .csv or .xlsx file instead of stdout"},
			&cli.BoolFlag{Name: "indonesian-numbers", Usage: "Format CSV numbers as 1.234,50"},
		},
		Action: runCalendar,
	}
}

func runCalendar(c *cli.Context) error {
	from := time.Now()
	if v := c.String("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		from = d
	}
	days := c.Int("days")
	if days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	ordersTable, err := ingest.ReadFile(c.String("orders"))
	if err != nil {
		return err
	}
	orders, _, err := ingest.LoadInboundOrders(ordersTable)
	if err != nil {
		return err
	}
	vendorTable, err := ingest.ReadFile(c.String("vendors"))
	if err != nil {
		return err
	}
	vendors, _, err := ingest.LoadVendors(vendorTable)
	if err != nil {
		return err
	}

	cal := schedule.ExpandInboundCalendar(orders, vendors, from, from.AddDate(0, 0, days-1))
	sheet := export.InboundCalendarSheet(cal)
	opts := export.Options{IndonesianNumbers: c.Bool("indonesian-numbers")}

	out := c.String("out")
	if out == "" {
		return export.WriteCSV(c.App.Writer, sheet, opts)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		return export.WriteXLSX(f, []export.Sheet{sheet}, opts)
	}
	return export.WriteCSV(f, sheet, opts)
}
