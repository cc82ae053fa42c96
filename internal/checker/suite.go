package checker

import (
	"time"

	"go.uber.org/zap"

	"github.com/gridmeta/cfcheck/internal/dataset"
	"github.com/gridmeta/cfcheck/internal/stdnames"
)

// Context carries the immutable reference services every rule may consult.
type Context struct {
	Table *stdnames.Table
}

// CheckFunc is one rule: a pure function over the dataset capability. A rule
// that finds nothing applicable returns nil and contributes nothing to the
// score.
type CheckFunc func(Context, dataset.Dataset) []Result

// Check is a registered rule.
type Check struct {
	Name string
	Run  CheckFunc
}

// Report is the flattened outcome of running a suite against one dataset.
type Report struct {
	Dataset   string    `json:"dataset"`
	Ruleset   string    `json:"ruleset"`
	TableVer  string    `json:"table_version"`
	CheckedAt time.Time `json:"checked_at"`
	Results   []Result  `json:"results"`
	Summary   Summary   `json:"summary"`
}

// Suite is an ordered collection of rules sharing one Context. The context's
// services are never mutated after construction, so one suite may evaluate
// many datasets concurrently.
type Suite struct {
	ruleset string
	ctx     Context
	checks  []Check
}

// NewSuite builds a suite with the full CF rule catalog registered.
func NewSuite(table *stdnames.Table) *Suite {
	s := &Suite{ruleset: "cf", ctx: Context{Table: table}}
	for _, c := range cfCatalog {
		s.Register(c)
	}
	return s
}

// NewEmptySuite builds a suite with no rules, for callers composing their
// own catalog.
func NewEmptySuite(ruleset string, table *stdnames.Table) *Suite {
	return &Suite{ruleset: ruleset, ctx: Context{Table: table}}
}

// Register appends a rule to the suite.
func (s *Suite) Register(c Check) {
	s.checks = append(s.checks, c)
}

// Ruleset returns the suite's rule-set name.
func (s *Suite) Ruleset() string { return s.ruleset }

// Run invokes every registered rule against the dataset and flattens their
// results into a report.
func (s *Suite) Run(ds dataset.Dataset) *Report {
	var all []Result
	for _, c := range s.checks {
		rs := c.Run(s.ctx, ds)
		zap.L().Debug("checker: rule complete",
			zap.String("dataset", ds.Name()),
			zap.String("rule", c.Name),
			zap.Int("results", len(rs)),
		)
		all = append(all, rs...)
	}

	rep := &Report{
		Dataset:   ds.Name(),
		Ruleset:   s.ruleset,
		TableVer:  s.ctx.Table.Version(),
		CheckedAt: time.Now().UTC(),
		Results:   all,
		Summary:   Summarize(all),
	}
	zap.L().Info("checker: run complete",
		zap.String("dataset", ds.Name()),
		zap.Int("scored", rep.Summary.Scored),
		zap.Int("possible", rep.Summary.Possible),
	)
	return rep
}
