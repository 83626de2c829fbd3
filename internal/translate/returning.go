package translate

import "strings"

// returningDetector flags statements carrying a RETURNING clause so
// the executor uses SQLite's native RETURNING support in one
// round-trip instead of a separate follow-up SELECT; rewriter 10 of
// spec §4.D. It makes no textual change.
type returningDetector struct{}

func (returningDetector) Name() string { return "returning_detector" }

func (returningDetector) Precheck(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "RETURNING")
}

func (returningDetector) Rewrite(sql string, ctx *Context) (string, error) {
	ctx.HasReturning = true
	ctx.FastPathEligible = false
	return sql, nil
}
