// Package checker holds the scored-result model every rule produces, the
// rule registry, and the CF rule catalog. Results are created fresh per rule
// invocation, immutable after return, and aggregated (never mutated) by the
// suite.
package checker

import "fmt"

// Result is one scored check outcome: a hierarchical name for grouping, a
// (scored, possible) pair, diagnostics explaining every deduction, and
// optional nested results for composite checks.
type Result struct {
	Name     string   `json:"name"`
	Scored   int      `json:"scored"`
	Possible int      `json:"possible"`
	Messages []string `json:"messages,omitempty"`
	Children []Result `json:"children,omitempty"`
}

// Pass is a full-credit boolean result.
func Pass(name string) Result {
	return Result{Name: name, Scored: 1, Possible: 1}
}

// Fail is a zero-credit boolean result. The message is mandatory: every
// deduction must be explained.
func Fail(name, msg string) Result {
	return Ratio(name, 0, 1, msg)
}

// Bool scores a single condition, attaching the message only on failure.
func Bool(name string, ok bool, msg string) Result {
	if ok {
		return Pass(name)
	}
	return Fail(name, msg)
}

// Ratio builds a pair-valued result. It panics on a malformed pair or on a
// deduction without a diagnostic; both are rule-author bugs, not data
// conditions.
func Ratio(name string, scored, possible int, msgs ...string) Result {
	if scored < 0 || possible <= 0 || scored > possible {
		panic(fmt.Sprintf("checker: invalid result pair (%d, %d) for %s", scored, possible, name))
	}
	if scored < possible && len(msgs) == 0 {
		panic(fmt.Sprintf("checker: deduction without diagnostic for %s", name))
	}
	return Result{Name: name, Scored: scored, Possible: possible, Messages: msgs}
}

// Total returns the result's pair including all nested children.
func (r Result) Total() (scored, possible int) {
	scored, possible = r.Scored, r.Possible
	for _, c := range r.Children {
		s, p := c.Total()
		scored += s
		possible += p
	}
	return scored, possible
}

// Merge sums a set of results into one (scored, possible) pair. Summing is
// commutative and associative, so rule invocation order never affects the
// final score.
func Merge(results []Result) (scored, possible int) {
	for _, r := range results {
		s, p := r.Total()
		scored += s
		possible += p
	}
	return scored, possible
}

// Summary is the aggregate a report consumer receives.
type Summary struct {
	Scored   int      `json:"scored"`
	Possible int      `json:"possible"`
	Messages []string `json:"messages,omitempty"`
}

// Summarize merges results and collects their diagnostics depth-first.
func Summarize(results []Result) Summary {
	var sum Summary
	sum.Scored, sum.Possible = Merge(results)
	var walk func([]Result)
	walk = func(rs []Result) {
		for _, r := range rs {
			sum.Messages = append(sum.Messages, r.Messages...)
			walk(r.Children)
		}
	}
	walk(results)
	return sum
}
