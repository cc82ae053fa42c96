// Package cellmethods parses CF cell_methods attribute strings.
//
// The grammar is "name1: [name2: ...] method [(qualifier: value [, ...])]"
// repeated per clause, with a restricted climatological variant handled by
// ParseClimatology. Malformed input never fails the parser: every malformed
// construct is recorded as a violation message and parsing continues, so a
// rule always gets the best-effort structure alongside the deductions it
// should score.
package cellmethods

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridmeta/cfcheck/internal/units"
)

// methods is the CF cell-method vocabulary (CF table E.1).
var methods = map[string]bool{
	"point":                  true,
	"sum":                    true,
	"maximum":                true,
	"maximum_absolute_value": true,
	"median":                 true,
	"mid_range":              true,
	"minimum":                true,
	"minimum_absolute_value": true,
	"mean":                   true,
	"mode":                   true,
	"range":                  true,
	"standard_deviation":     true,
	"variance":               true,
}

// Qualifier is one parenthetical element. An empty Keyword marks a
// standalone free-text comment (a parenthetical with no "keyword:" inside).
type Qualifier struct {
	Keyword string
	Value   string
}

// Clause is one parsed unit of a cell_methods string: one or more
// dimension/variable names sharing a method, an optional climatological
// within/over time period, and any parenthetical qualifiers.
type Clause struct {
	Names      []string
	Method     string
	Within     string
	Over       string
	Qualifiers []Qualifier
}

// Parsed is the best-effort structural result plus accumulated violations.
type Parsed struct {
	Clauses    []Clause
	Violations []string
}

// Ok reports whether parsing completed with zero violations.
func (p Parsed) Ok() bool { return len(p.Violations) == 0 }

type token struct {
	text  string
	paren bool
}

func tokenize(attr string) ([]token, []string) {
	var toks []token
	var violations []string
	i := 0
	for i < len(attr) {
		switch {
		case attr[i] == ' ' || attr[i] == '\t' || attr[i] == '\n':
			i++
		case attr[i] == '(':
			end := strings.IndexByte(attr[i:], ')')
			if end < 0 {
				violations = append(violations, fmt.Sprintf("unterminated parenthetical %q", attr[i:]))
				toks = append(toks, token{text: strings.TrimSpace(attr[i+1:]), paren: true})
				i = len(attr)
				break
			}
			toks = append(toks, token{text: strings.TrimSpace(attr[i+1 : i+end]), paren: true})
			i += end + 1
		default:
			j := i
			for j < len(attr) && attr[j] != ' ' && attr[j] != '\t' && attr[j] != '\n' && attr[j] != '(' {
				j++
			}
			toks = append(toks, token{text: attr[i:j]})
			i = j
		}
	}
	return toks, violations
}

// parser states, in grammar order.
type state int

const (
	expectNames state = iota
	expectMethod
	expectParenOrNextClause
)

// Parse parses a cell_methods attribute. It never fails; see Parsed.
func Parse(attr string) Parsed {
	var p Parsed
	toks, violations := tokenize(attr)
	p.Violations = violations

	var cur *Clause
	st := expectNames
	pendingPeriod := "" // "within" or "over" awaiting its time-period word

	flush := func() {
		if cur != nil {
			p.Clauses = append(p.Clauses, *cur)
			cur = nil
		}
	}

	for _, tok := range toks {
		if pendingPeriod != "" {
			if tok.paren || strings.HasSuffix(tok.text, ":") {
				p.Violations = append(p.Violations,
					fmt.Sprintf("%q must be followed by a time period in cell_methods", pendingPeriod))
			} else {
				if pendingPeriod == "within" {
					cur.Within = tok.text
				} else {
					cur.Over = tok.text
				}
				pendingPeriod = ""
				continue
			}
			pendingPeriod = ""
		}

		switch st {
		case expectNames:
			switch {
			case tok.paren:
				p.Violations = append(p.Violations,
					fmt.Sprintf("unexpected parenthetical (%s) before any method", tok.text))
			case strings.HasSuffix(tok.text, ":"):
				if cur == nil {
					cur = &Clause{}
				}
				cur.Names = append(cur.Names, strings.TrimSuffix(tok.text, ":"))
				st = expectMethod
			default:
				p.Violations = append(p.Violations,
					fmt.Sprintf("expected \"name:\" in cell_methods, got %q", tok.text))
			}

		case expectMethod:
			switch {
			case tok.paren:
				p.Violations = append(p.Violations,
					fmt.Sprintf("expected a method before parenthetical (%s)", tok.text))
			case strings.HasSuffix(tok.text, ":"):
				cur.Names = append(cur.Names, strings.TrimSuffix(tok.text, ":"))
			default:
				if !methods[tok.text] {
					p.Violations = append(p.Violations,
						fmt.Sprintf("unrecognized cell method %q", tok.text))
				}
				cur.Method = tok.text
				st = expectParenOrNextClause
			}

		case expectParenOrNextClause:
			switch {
			case tok.paren:
				parseParen(tok.text, cur, &p.Violations)
				flush()
				st = expectNames
			case tok.text == "within" || tok.text == "over":
				pendingPeriod = tok.text
			case strings.HasSuffix(tok.text, ":"):
				flush()
				cur = &Clause{Names: []string{strings.TrimSuffix(tok.text, ":")}}
				st = expectMethod
			default:
				p.Violations = append(p.Violations,
					fmt.Sprintf("unexpected word %q in cell_methods", tok.text))
			}
		}
	}

	if pendingPeriod != "" {
		p.Violations = append(p.Violations,
			fmt.Sprintf("%q must be followed by a time period in cell_methods", pendingPeriod))
	}
	if st == expectMethod && cur != nil {
		p.Violations = append(p.Violations,
			fmt.Sprintf("no method given for %s", strings.Join(cur.Names, ", ")))
	}
	flush()
	return p
}

// parseParen interprets one parenthetical. With no leading "keyword:" the
// whole content is a single standalone comment. Otherwise it is a qualifier
// list in which all non-comment qualifiers must precede any "comment:".
func parseParen(content string, clause *Clause, violations *[]string) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		*violations = append(*violations, "empty parenthetical in cell_methods")
		return
	}

	if !strings.HasSuffix(fields[0], ":") {
		for _, f := range fields[1:] {
			if strings.HasSuffix(f, ":") {
				*violations = append(*violations,
					fmt.Sprintf("parenthetical content is not well formed: %s", content))
				return
			}
		}
		clause.Qualifiers = append(clause.Qualifiers, Qualifier{Value: strings.Join(fields, " ")})
		return
	}

	seenComment := false
	orderReported := false
	for i := 0; i < len(fields); {
		keyword := strings.TrimSuffix(fields[i], ":")
		j := i + 1
		for j < len(fields) && !strings.HasSuffix(fields[j], ":") {
			j++
		}
		value := strings.Join(fields[i+1:j], " ")
		i = j

		switch keyword {
		case "comment":
			seenComment = true
		case "interval":
			if seenComment && !orderReported {
				*violations = append(*violations,
					`the non-standard "comment:" element must come after any standard elements in cell_methods`)
				orderReported = true
			}
			checkInterval(value, violations)
		default:
			*violations = append(*violations,
				fmt.Sprintf("invalid cell_methods keyword %q; must be one of [interval, comment]", keyword+":"))
		}
		clause.Qualifiers = append(clause.Qualifiers, Qualifier{Keyword: keyword, Value: value})
	}
}

// checkInterval validates an interval value of the form "<number> <unit>".
// The clause is still recorded on failure; only a violation is added.
func checkInterval(value string, violations *[]string) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		*violations = append(*violations,
			fmt.Sprintf(`interval must be in the form "interval: <number> <unit>", got %q`, value))
		return
	}
	if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
		*violations = append(*violations,
			fmt.Sprintf("interval value %q is not a number", fields[0]))
		return
	}
	unit := strings.Join(fields[1:], " ")
	if !units.Parseable(unit) {
		*violations = append(*violations,
			fmt.Sprintf("unrecognized unit %q in cell_methods interval", unit))
	}
}
