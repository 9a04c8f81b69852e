package ports

import (
	"context"

	"godea/domain/dataset"
	"godea/domain/dea"
)

// SolverPort evaluates one DMU of a table. Implementations must be safe for
// concurrent use; the service calls Solve from several goroutines over the same table.
type SolverPort interface {
	Solve(ctx context.Context, table *dataset.DataTable, k int) dea.Outcome
}
