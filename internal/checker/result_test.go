package checker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultConstructors(t *testing.T) {
	p := Pass("§1 Something")
	assert.Equal(t, 1, p.Scored)
	assert.Equal(t, 1, p.Possible)
	assert.Empty(t, p.Messages)

	f := Fail("§1 Something", "broken")
	assert.Equal(t, 0, f.Scored)
	assert.Equal(t, 1, f.Possible)
	assert.Equal(t, []string{"broken"}, f.Messages)

	r := Ratio("§2 Other", 2, 3, "one deduction")
	assert.Equal(t, 2, r.Scored)
	assert.Equal(t, 3, r.Possible)
}

func TestRatioPanicsOnMalformedPair(t *testing.T) {
	assert.Panics(t, func() { Ratio("bad", 3, 2, "msg") })
	assert.Panics(t, func() { Ratio("bad", -1, 2, "msg") })
	assert.Panics(t, func() { Ratio("bad", 0, 0) })
}

func TestRatioPanicsOnSilentDeduction(t *testing.T) {
	assert.Panics(t, func() { Ratio("bad", 1, 2) })
	assert.NotPanics(t, func() { Ratio("ok", 2, 2) })
}

func TestTotalIncludesChildren(t *testing.T) {
	r := Result{
		Name: "composite", Scored: 1, Possible: 1,
		Children: []Result{
			Ratio("a", 1, 2, "m"),
			{Name: "b", Scored: 0, Possible: 1, Messages: []string{"m"},
				Children: []Result{Pass("c")}},
		},
	}
	scored, possible := r.Total()
	assert.Equal(t, 3, scored)
	assert.Equal(t, 5, possible)
}

func TestMergeOrderIndependent(t *testing.T) {
	results := []Result{
		Pass("a"),
		Fail("b", "m"),
		Ratio("c", 3, 5, "m"),
		{Name: "d", Scored: 1, Possible: 2, Messages: []string{"m"},
			Children: []Result{Pass("e"), Fail("f", "m")}},
	}
	scored, possible := Merge(results)
	require.Equal(t, 6, scored)
	require.Equal(t, 10, possible)

	// Shuffling never changes the aggregate.
	for range 10 {
		shuffled := make([]Result, len(results))
		copy(shuffled, results)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		s, p := Merge(shuffled)
		assert.Equal(t, scored, s)
		assert.Equal(t, possible, p)
	}

	// Associativity: merging partitions then combining matches one pass.
	s1, p1 := Merge(results[:2])
	s2, p2 := Merge(results[2:])
	assert.Equal(t, scored, s1+s2)
	assert.Equal(t, possible, p1+p2)
}

func TestSummarizeCollectsMessages(t *testing.T) {
	results := []Result{
		Pass("a"),
		Fail("b", "first"),
		{Name: "c", Scored: 1, Possible: 1,
			Children: []Result{Fail("d", "second")}},
	}
	sum := Summarize(results)
	assert.Equal(t, 3, sum.Scored)
	assert.Equal(t, 4, sum.Possible)
	assert.Equal(t, []string{"first", "second"}, sum.Messages)
}
