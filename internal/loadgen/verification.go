package loadgen

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
)

// ErrMismatch is returned when the report did not move as expected.
var ErrMismatch = errors.New("report mismatch")

// Verify checks that after minus before equals the aggregation of accepted,
// row by row, using the server's brackets and the default gender literals.
func Verify(before, after report.Report, accepted model.Groups) error {
	if !slices.Equal(before.Brackets, after.Brackets) && len(before.Brackets) > 0 {
		return fmt.Errorf("%w: brackets changed during the run", ErrMismatch)
	}
	want := report.NewBuilder(report.WithBrackets(after.Brackets)).Build(accepted)

	var problems []error
	if d := after.TotalRecords - before.TotalRecords; d != want.TotalRecords {
		problems = append(problems, fmt.Errorf("total records moved by %d, want %d", d, want.TotalRecords))
	}
	for _, w := range want.Rows {
		got, ok := after.Row(w.RiskPercentage)
		if !ok {
			problems = append(problems, fmt.Errorf("row %q missing", w.RiskPercentage))
			continue
		}
		base, _ := before.Row(w.RiskPercentage)
		if d := diff(got, base); !rowEqual(d, w) {
			problems = append(problems, fmt.Errorf("row %q moved by %+v, want %+v", w.RiskPercentage, d, w))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrMismatch, errors.Join(problems...))
	}
	return nil
}

// diff returns a minus b. b may be the zero Row.
func diff(a, b report.Row) report.Row {
	d := report.Row{
		RiskPercentage: a.RiskPercentage,
		Male:           a.Male - b.Male,
		Female:         a.Female - b.Female,
		Other:          a.Other - b.Other,
		Ages:           make([]int, len(a.Ages)),
	}
	for i := range a.Ages {
		d.Ages[i] = a.Ages[i]
		if i < len(b.Ages) {
			d.Ages[i] -= b.Ages[i]
		}
	}
	return d
}

func rowEqual(a, b report.Row) bool {
	return a.Male == b.Male && a.Female == b.Female && a.Other == b.Other && slices.Equal(a.Ages, b.Ages)
}
