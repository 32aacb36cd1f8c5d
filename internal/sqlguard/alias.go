package sqlguard

import (
	"regexp"
	"sort"
	"strings"
)

var (
	stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"`)
	// FROM/JOIN <table>; the table may carry a schema prefix.
	tableRef  = regexp.MustCompile("(?i)\\b(?:FROM|JOIN)\\s+`?([A-Za-z_][\\w.`]*)")
	aliasRef  = regexp.MustCompile(`^\s+(?:(?i:AS)\s+)?([A-Za-z_]\w*)`)
	columnRef = regexp.MustCompile("\\b([A-Za-z_]\\w*)\\s*\\.\\s*[A-Za-z_*`\"]")

	// FROM as an argument separator, as in EXTRACT(YEAR FROM t.payment_time).
	functionFrom = regexp.MustCompile(`(?i)\b(?:EXTRACT|SUBSTRING|TRIM|OVERLAY|POSITION)\s*\([^()]*$`)
)

var notAliases = map[string]struct{}{
	"where": {}, "join": {}, "left": {}, "right": {}, "inner": {}, "outer": {},
	"full": {}, "cross": {}, "on": {}, "group": {}, "order": {}, "limit": {},
	"having": {}, "union": {}, "using": {}, "as": {}, "natural": {}, "window": {},
	"offset": {}, "set": {}, "for": {}, "lateral": {},
}

// UndeclaredAliases returns the sorted, lower-cased qualifiers that appear in
// "qualifier.column" references but are neither a FROM/JOIN alias nor a table
// named there.
func UndeclaredAliases(sqlText string) []string {
	text := stringLiteral.ReplaceAllString(sqlText, "''")

	declared := map[string]struct{}{}
	for _, loc := range tableRef.FindAllStringSubmatchIndex(text, -1) {
		if functionFrom.MatchString(text[:loc[0]]) {
			continue
		}
		table := strings.ReplaceAll(text[loc[2]:loc[3]], "`", "")
		for _, part := range strings.Split(table, ".") {
			if part != "" {
				declared[strings.ToLower(part)] = struct{}{}
			}
		}
		// The alias is read without consuming it so a following JOIN still matches.
		if m := aliasRef.FindStringSubmatch(text[loc[1]:]); m != nil {
			alias := strings.ToLower(m[1])
			if _, keyword := notAliases[alias]; !keyword {
				declared[alias] = struct{}{}
			}
		}
	}

	used := map[string]struct{}{}
	for _, m := range columnRef.FindAllStringSubmatch(text, -1) {
		used[strings.ToLower(m[1])] = struct{}{}
	}

	var out []string
	for alias := range used {
		if _, ok := declared[alias]; !ok {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
