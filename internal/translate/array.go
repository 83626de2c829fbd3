package translate

import (
	"regexp"
	"strings"
)

// arrayTranslator rewrites ARRAY[...] literals and array operators
// into calls against the array shim functions spec §4.I registers;
// rewriter 6 of spec §4.D.
type arrayTranslator struct{}

func (arrayTranslator) Name() string { return "array_translator" }

func (arrayTranslator) Precheck(sql string) bool {
	u := strings.ToUpper(sql)
	return strings.Contains(u, "ARRAY[") || strings.Contains(sql, "@>") || strings.Contains(sql, "<@") ||
		strings.Contains(sql, "&&") || strings.Contains(u, " ANY(") || strings.Contains(u, " ALL(")
}

var (
	arrayLiteralRe = regexp.MustCompile(`(?i)ARRAY\s*\[([^\]]*)\]`)
	containsOpRe   = regexp.MustCompile(`(\S+)\s*@>\s*(\S+)`)
	containedOpRe  = regexp.MustCompile(`(\S+)\s*<@\s*(\S+)`)
	overlapOpRe    = regexp.MustCompile(`(\S+)\s*&&\s*(\S+)`)
	anyOpRe        = regexp.MustCompile(`(?i)(\S+)\s*=\s*ANY\s*\(\s*(\S+)\s*\)`)
)

func (arrayTranslator) Rewrite(sql string, ctx *Context) (string, error) {
	return rebuildOther(sql, func(s string) string {
		s = arrayLiteralRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := arrayLiteralRe.FindStringSubmatch(m)
			items := splitTopLevel(sub[1], ',')
			for i, it := range items {
				items[i] = strings.TrimSpace(it)
			}
			return "json_array(" + strings.Join(items, ", ") + ")"
		})
		s = containsOpRe.ReplaceAllString(s, `array_contains($1, $2)`)
		s = containedOpRe.ReplaceAllString(s, `array_contained($1, $2)`)
		s = overlapOpRe.ReplaceAllString(s, `array_overlap($1, $2)`)
		s = anyOpRe.ReplaceAllString(s, `array_contains($2, json_array($1))`)
		return s
	}), nil
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// parentheses or brackets, used by the array-literal rewriter so
// ARRAY[f(1,2), 3] doesn't split on the inner comma.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
