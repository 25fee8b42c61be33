package workflow

import (
	"context"
	"sort"

	"github.com/litellm-tools/spanstrap/internal/schema"
	"github.com/litellm-tools/spanstrap/pkg/dbadapter"
	"github.com/litellm-tools/spanstrap/pkg/logger"
)

// Report is the outcome of a catalog verification: which expected tables are
// present and which are missing, both in lexicographic order, plus the row
// count of each present table.
type Report struct {
	Present []string
	Missing []string
	Counts  map[string]int64
}

// Complete reports whether every expected table was found.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// Verifier checks the database catalog against the expected table set and
// reports per-table row counts. It only reads; a missing table is reported,
// not recreated.
type Verifier struct {
	ops  dbadapter.SchemaOperator
	data dbadapter.DataOperator
	log  *logger.Logger
}

// NewVerifier creates a verifier reading the catalog through ops and row
// counts through data.
func NewVerifier(ops dbadapter.SchemaOperator, data dbadapter.DataOperator, log *logger.Logger) *Verifier {
	return &Verifier{ops: ops, data: data, log: log}
}

// Tables returns the names of catalog tables carrying the owned prefix, in
// lexicographic order. Zero matches is not an error here; Verify decides what
// that means.
func (v *Verifier) Tables(ctx context.Context) ([]string, error) {
	return v.ops.ListTablesWithPrefix(ctx, schema.Prefix)
}

// Verify lists the prefixed catalog tables and diffs them against the
// expected set. Zero matches logs a warning, since it usually means the
// schema was never applied. Row counts are diagnostic: a count failure is
// logged, not propagated.
func (v *Verifier) Verify(ctx context.Context) (Report, error) {
	found, err := v.Tables(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(found) == 0 {
		v.log.Warnf("no tables with prefix %q found; schema not applied?", schema.Prefix)
	}

	present := make(map[string]bool, len(found))
	for _, name := range found {
		present[name] = true
	}

	report := Report{Counts: make(map[string]int64)}
	for _, want := range schema.TableNames() {
		if present[want] {
			report.Present = append(report.Present, want)
		} else {
			report.Missing = append(report.Missing, want)
		}
	}
	sort.Strings(report.Present)
	sort.Strings(report.Missing)

	for _, name := range report.Present {
		n, err := v.data.GetRowCount(ctx, name)
		if err != nil {
			v.log.Warnf("table %s present, row count unavailable: %v", name, err)
			continue
		}
		report.Counts[name] = n
		v.log.Infof("table %s present (%d rows)", name, n)
	}
	for _, name := range report.Missing {
		v.log.Warnf("table %s missing", name)
	}
	return report, nil
}
