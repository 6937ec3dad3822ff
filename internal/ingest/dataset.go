package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Parsed is every uploaded table decoded into typed records.
type Parsed struct {
	Positions        []domain.StockPosition
	Demand           *domain.DemandBook
	Vendors          *domain.VendorBook
	Holidays         []domain.Holiday
	Costs            []domain.CostRecord
	HubHistory       []domain.HubHistory
	CategoryForecast []domain.CategoryForecast
	SKULines         []domain.SKULine
	InboundOrders    []domain.InboundOrder

	Repairs []domain.Repair
	Issues  []domain.Issue

	present map[Kind]bool
}

// Has reports whether kind was uploaded and decoded without a schema error.
func (p *Parsed) Has(kind Kind) bool {
	return p != nil && p.present[kind]
}

type parseResult struct {
	repairs []domain.Repair
	err     error
}

// Parse decodes each table concurrently. A schema mismatch only disables its
// own table and is reported as an issue; results merge in Kinds order so the
// output does not depend on scheduling.
func Parse(ctx context.Context, tables map[Kind]*Table, opts Options) (*Parsed, error) {
	out := &Parsed{present: make(map[Kind]bool)}
	results := make(map[Kind]*parseResult, len(Kinds))
	for _, k := range Kinds {
		if tables[k] != nil {
			results[k] = &parseResult{}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for kind, res := range results {
		kind, res, t := kind, res, tables[kind]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.repairs, res.err = out.decode(kind, t, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}

	for _, k := range Kinds {
		res, ok := results[k]
		if !ok {
			continue
		}
		out.Repairs = append(out.Repairs, res.repairs...)
		if res.err != nil {
			out.Issues = append(out.Issues, issueFor(k, res.err))
			continue
		}
		out.present[k] = true
	}

	if len(out.Repairs) > 0 {
		log.Info().Int("repairs", len(out.Repairs)).Msg("Replaced malformed cells with defaults")
	}
	return out, nil
}

// decode writes only the field owned by kind, so concurrent calls never touch
// the same memory.
func (p *Parsed) decode(kind Kind, t *Table, opts Options) ([]domain.Repair, error) {
	var (
		repairs []domain.Repair
		err     error
	)
	switch kind {
	case KindStock:
		p.Positions, repairs, err = LoadPositions(t, opts)
	case KindDemand:
		p.Demand, repairs, err = LoadDemand(t)
	case KindVendor:
		p.Vendors, repairs, err = LoadVendors(t)
	case KindHoliday:
		p.Holidays, repairs, err = LoadHolidays(t)
	case KindCost:
		p.Costs, repairs, err = LoadCosts(t)
	case KindEstimatedSO:
		p.HubHistory, repairs, err = LoadHubHistory(t)
	case KindCategoryForecast:
		p.CategoryForecast, repairs, err = LoadCategoryForecast(t)
	case KindSKU:
		p.SKULines, repairs, err = LoadSKULines(t)
	case KindInboundOrder:
		p.InboundOrders, repairs, err = LoadInboundOrders(t)
	default:
		err = fmt.Errorf("no loader for table kind %s", kind)
	}
	return repairs, err
}

func issueFor(kind Kind, err error) domain.Issue {
	issue := domain.Issue{Table: string(kind), Kind: domain.IssueUnreadable, Message: err.Error()}
	var mismatch *domain.SchemaMismatchError
	if errors.As(err, &mismatch) {
		issue.Kind = domain.IssueSchemaMismatch
		issue.Missing = mismatch.Missing
	}
	var missing *domain.MissingInputError
	if errors.As(err, &missing) {
		issue.Kind = domain.IssueMissingInput
	}
	return issue
}
