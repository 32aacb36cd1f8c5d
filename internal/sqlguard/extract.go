// Package sqlguard pulls a single bounded SELECT out of untrusted model output
// and reports table aliases the statement uses without declaring.
//
// Both are lexical heuristics over the bounded query shapes the prompt asks
// for. They are not SQL parsers.
package sqlguard

import (
	"regexp"
	"strings"
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```(?:[\\w+-]*[ \\t]*\\n|(?i:sql)[ \\t]+)?(.*?)```")
	statementTop = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	selectTop    = regexp.MustCompile(`(?i)^SELECT\b`)
	withKeyword  = regexp.MustCompile(`(?i)\bWITH\b`)
	// A CTE header ends at the ")" closing its body when SELECT follows.
	cteHeader = regexp.MustCompile(`(?is)\bWITH\b.*?\)\s*(SELECT\b.*)$`)
)

// Extract returns one statement that starts with SELECT and contains no ";"
// or CTE header, or "" when nothing usable is found. Extract is idempotent.
func Extract(raw string) string {
	candidate := candidateText(raw)
	if candidate == "" || strings.Contains(candidate, "```") {
		return ""
	}
	if i := strings.Index(candidate, ";"); i >= 0 {
		candidate = candidate[:i]
	}
	candidate = stripCTE(candidate)
	candidate = strings.TrimRight(strings.TrimSpace(candidate), ";")
	candidate = normalizeLines(candidate)
	if !selectTop.MatchString(candidate) {
		return ""
	}
	return candidate
}

func candidateText(raw string) string {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	var lines []string
	found := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !found {
			if !statementTop.MatchString(trimmed) {
				continue
			}
			found = true
		}
		if trimmed == "" {
			break
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n")
}

func stripCTE(sqlText string) string {
	for withKeyword.MatchString(sqlText) {
		m := cteHeader.FindStringSubmatch(sqlText)
		if m == nil || m[1] == sqlText {
			break
		}
		sqlText = m[1]
	}
	return sqlText
}

func normalizeLines(sqlText string) string {
	var out []string
	for _, line := range strings.Split(sqlText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
