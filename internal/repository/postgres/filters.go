package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/lib/pq"
)

// buildPositionFilterClause constructs the WHERE clause for stock snapshot queries
func buildPositionFilterClause(filter repository.PositionFilter, alias string, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if !filter.SnapshotDate.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%ssnapshot_date = $%d", alias, idx))
		args = append(args, domain.DateOnly(filter.SnapshotDate))
		idx++
	}

	if len(filter.LocationIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("%slocation_id = ANY($%d)", alias, idx))
		args = append(args, pq.Array(filter.LocationIDs))
		idx++
	}

	if len(filter.ProductIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("%sproduct_id = ANY($%d)", alias, idx))
		args = append(args, pq.Array(filter.ProductIDs))
		idx++
	}

	if len(filter.VendorNames) > 0 {
		normalized := make([]string, 0, len(filter.VendorNames))
		for _, v := range filter.VendorNames {
			if n := domain.NormalizeVendor(v); n != "" {
				normalized = append(normalized, n)
			}
		}
		if len(normalized) > 0 {
			clauses = append(clauses, fmt.Sprintf("UPPER(%svendor_name) = ANY($%d)", alias, idx))
			args = append(args, pq.Array(normalized))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
