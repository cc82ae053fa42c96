package cellmethods

import (
	"fmt"
	"strings"
)

// ParseClimatology parses a cell_methods attribute under the climatological
// statistics grammar (CF 7.4): two or three clauses, all on time, each
// carrying a within/over time period. The only legal sequences are
//
//	time: m1 within days time: m2 over days
//	time: m1 within days time: m2 over days time: m3 over years
//
// Any other method/period combination adds a violation naming the offending
// clause. A trailing parenthetical comment is allowed.
func ParseClimatology(attr string) Parsed {
	p := Parse(attr)
	n := len(p.Clauses)
	if n < 2 || n > 3 {
		p.Violations = append(p.Violations,
			fmt.Sprintf("climatological cell_methods must have two or three time clauses, got %d", n))
		return p
	}

	for i, c := range p.Clauses {
		if len(c.Names) != 1 || c.Names[0] != "time" {
			p.Violations = append(p.Violations,
				fmt.Sprintf("climatological clause %d must apply to time, got %q",
					i+1, strings.Join(c.Names, ": ")))
		}
	}

	c1, c2 := p.Clauses[0], p.Clauses[1]
	if c1.Within != "days" || c1.Over != "" {
		p.Violations = append(p.Violations,
			fmt.Sprintf("first climatological clause must be %q, got %q", "within days", periodOf(c1)))
	}
	if c2.Over != "days" || c2.Within != "" {
		p.Violations = append(p.Violations,
			fmt.Sprintf("second climatological clause must be %q, got %q", "over days", periodOf(c2)))
	}
	if n == 3 {
		c3 := p.Clauses[2]
		// A third clause is legal only as "over years" appended to a valid
		// within/over days pair.
		if c3.Over != "years" || c3.Within != "" {
			p.Violations = append(p.Violations,
				fmt.Sprintf("third climatological clause must be %q, got %q", "over years", periodOf(c3)))
		}
	}
	return p
}

func periodOf(c Clause) string {
	switch {
	case c.Within != "" && c.Over != "":
		return "within " + c.Within + " over " + c.Over
	case c.Within != "":
		return "within " + c.Within
	case c.Over != "":
		return "over " + c.Over
	default:
		return "no time period"
	}
}
