package extract

import (
	"regexp"
	"strings"
)

// callSiteRe matches identifier( and receiver.method( call sites.
var callSiteRe = regexp.MustCompile(`(?:^|[^\w.])([A-Za-z_][\w.]*)\s*\(`)

// keywords that look like call sites but are control flow or declarations.
var nonCallKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "def": true, "class": true, "new": true,
	"super": true, "with": true, "elif": true, "except": true, "assert": true,
	"print": true, "len": true, "range": true, "str": true, "int": true,
	"isinstance": true, "typeof": true, "await": true, "yield": true,
	"constructor": true, "require": true, "import": true, "throw": true,
	"do": true, "else": true, "try": true, "synchronized": true,
}

// scanCallSites extracts best-effort callee names from one line of code.
// Dotted receivers are reduced to the final segment; resolution against
// actual entities happens later in the graph builder.
func scanCallSites(line string) []string {
	var callees []string
	for _, m := range callSiteRe.FindAllStringSubmatch(line, -1) {
		name := m[1]
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "" || nonCallKeywords[name] {
			continue
		}
		callees = append(callees, name)
	}
	return callees
}

// branchKeywordRe drives the cyclomatic complexity estimate: one plus the
// count of branching keywords in a body.
var branchKeywordRe = regexp.MustCompile(`\b(if|elif|else if|for|while|case|catch|except|&&|\|\|)\b`)

func complexityEstimate(body []string) int {
	c := 1
	for _, line := range body {
		c += len(branchKeywordRe.FindAllString(line, -1))
	}
	return c
}

// stripLineComment cuts a trailing line comment, ignoring markers inside
// single- or double-quoted strings.
func stripLineComment(line, marker string) string {
	inSingle, inDouble := false, false
	for i := 0; i+len(marker) <= len(line); i++ {
		switch line[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
		if !inSingle && !inDouble && strings.HasPrefix(line[i:], marker) {
			return line[:i]
		}
	}
	return line
}

// indentWidth counts leading spaces, expanding tabs to four columns.
func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

// splitList splits a comma-separated clause (base classes, interface lists)
// and trims generic parameters and whitespace from each element.
func splitList(clause string) []string {
	var out []string
	for _, part := range strings.Split(clause, ",") {
		name := strings.TrimSpace(part)
		if i := strings.IndexAny(name, "<(["); i >= 0 {
			name = name[:i]
		}
		// keyword arguments in Python base lists (metaclass=...) are not bases
		if name == "" || strings.Contains(name, "=") {
			continue
		}
		out = append(out, name)
	}
	return out
}
