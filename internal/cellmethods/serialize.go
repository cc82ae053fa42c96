package cellmethods

import "strings"

// String renders the clause back into attribute syntax. Re-parsing the
// result yields an equivalent clause.
func (c Clause) String() string {
	var sb strings.Builder
	for _, n := range c.Names {
		sb.WriteString(n)
		sb.WriteString(": ")
	}
	sb.WriteString(c.Method)
	if c.Within != "" {
		sb.WriteString(" within ")
		sb.WriteString(c.Within)
	}
	if c.Over != "" {
		sb.WriteString(" over ")
		sb.WriteString(c.Over)
	}
	if len(c.Qualifiers) > 0 {
		sb.WriteString(" (")
		for i, q := range c.Qualifiers {
			if i > 0 {
				sb.WriteString(" ")
			}
			if q.Keyword != "" {
				sb.WriteString(q.Keyword)
				sb.WriteString(": ")
			}
			sb.WriteString(q.Value)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// String renders all clauses back into a single attribute string.
func (p Parsed) String() string {
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
