// Package temporal resolves relative date phrases into exact SQL predicates
// so that calendar semantics do not depend on the generative backend.
package temporal

import (
	"regexp"
	"strings"

	"github.com/novaquery/novaquery/internal/query"
)

type Rule struct {
	Phrase string
	// Template holds the predicate with {col} standing for the time column.
	Template string
	pattern  *regexp.Regexp
}

type Predicate struct {
	Phrase string
	SQL    string
}

func newRule(phrase, template string) Rule {
	return Rule{
		Phrase:   phrase,
		Template: template,
		pattern:  regexp.MustCompile(`\b` + strings.ReplaceAll(regexp.QuoteMeta(phrase), " ", `\s+`) + `\b`),
	}
}

func (r Rule) Render(column string) string {
	return strings.ReplaceAll(r.Template, "{col}", column)
}

var (
	mysqlRules = []Rule{
		newRule("today", "DATE({col}) = CURDATE()"),
		newRule("yesterday", "DATE({col}) = DATE_SUB(CURDATE(), INTERVAL 1 DAY)"),
		newRule("this week", "YEARWEEK({col}) = YEARWEEK(CURDATE())"),
		newRule("this month", "MONTH({col}) = MONTH(CURDATE()) AND YEAR({col}) = YEAR(CURDATE())"),
		newRule("last month", "MONTH({col}) = MONTH(DATE_SUB(CURDATE(), INTERVAL 1 MONTH)) AND YEAR({col}) = YEAR(DATE_SUB(CURDATE(), INTERVAL 1 MONTH))"),
	}
	// PostgreSQL and DuckDB share the ANSI-flavoured forms.
	ansiRules = []Rule{
		newRule("today", "CAST({col} AS DATE) = CURRENT_DATE"),
		newRule("yesterday", "CAST({col} AS DATE) = CURRENT_DATE - INTERVAL '1 day'"),
		newRule("this week", "DATE_TRUNC('week', {col}) = DATE_TRUNC('week', CURRENT_DATE)"),
		newRule("this month", "EXTRACT(MONTH FROM {col}) = EXTRACT(MONTH FROM CURRENT_DATE) AND EXTRACT(YEAR FROM {col}) = EXTRACT(YEAR FROM CURRENT_DATE)"),
		newRule("last month", "EXTRACT(MONTH FROM {col}) = EXTRACT(MONTH FROM (CURRENT_DATE - INTERVAL '1 month')) AND EXTRACT(YEAR FROM {col}) = EXTRACT(YEAR FROM (CURRENT_DATE - INTERVAL '1 month'))"),
	}
)

// Rules returns the ordered phrase table for dialect. Callers must not modify
// the returned slice.
func Rules(dialect query.Dialect) []Rule {
	if dialect == query.MySQL || dialect == "" {
		return mysqlRules
	}
	return ansiRules
}

// Resolve returns a predicate for every phrase found in question, in rule order.
func Resolve(question, column string, dialect query.Dialect) []Predicate {
	lower := strings.ToLower(question)
	var out []Predicate
	for _, rule := range Rules(dialect) {
		if rule.pattern.MatchString(lower) {
			out = append(out, Predicate{Phrase: rule.Phrase, SQL: rule.Render(column)})
		}
	}
	return out
}

// Missing lists the predicates that sqlText does not contain. Case and
// whitespace differences are ignored, as are column qualifiers such as "t.".
func Missing(sqlText string, predicates []Predicate) []Predicate {
	haystack := canonical(stripQualifiers(sqlText))
	var out []Predicate
	for _, p := range predicates {
		if !strings.Contains(haystack, canonical(stripQualifiers(p.SQL))) {
			out = append(out, p)
		}
	}
	return out
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	qualifier  = regexp.MustCompile(`\b[A-Za-z_]\w*\.([A-Za-z_]\w*)`)
	tightPunct = regexp.MustCompile(`\s*([(),=\-])\s*`)
)

func stripQualifiers(s string) string {
	return qualifier.ReplaceAllString(s, "$1")
}

func canonical(s string) string {
	s = strings.ToLower(s)
	s = whitespace.ReplaceAllString(s, " ")
	s = tightPunct.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
