package shims

import (
	"database/sql/driver"
	"regexp"
	"sync"

	"modernc.org/sqlite"
)

// registerRegexp implements the REGEXP/REGEXPI shims the regex
// translator (internal/translate/regex.go) emits for ~, !~, ~*, !~*.
// Go's regexp (RE2) doesn't accept every construct POSIX ERE allows
// (backreferences, in particular), but it covers the patterns ORMs
// actually generate; an unsupported pattern surfaces as a SQL function
// error rather than silently matching everything.
func registerRegexp() error {
	if err := sqlite.RegisterDeterministicScalarFunction("regexp", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return matchRegexp(args[0], args[1], false)
		}); err != nil {
		return err
	}
	return sqlite.RegisterDeterministicScalarFunction("regexpi", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return matchRegexp(args[0], args[1], true)
		})
}

var regexpCache sync.Map // pattern string -> *regexp.Regexp

func compileCached(pattern string, ci bool) (*regexp.Regexp, error) {
	key := pattern
	if ci {
		key = "(?i)" + pattern
	}
	if v, ok := regexpCache.Load(key); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(key)
	if err != nil {
		return nil, err
	}
	regexpCache.Store(key, re)
	return re, nil
}

func matchRegexp(patternVal, subjectVal driver.Value, ci bool) (driver.Value, error) {
	pattern, _ := patternVal.(string)
	subject, ok := subjectVal.(string)
	if !ok {
		return int64(0), nil
	}
	re, err := compileCached(pattern, ci)
	if err != nil {
		return nil, err
	}
	return boolInt(re.MatchString(subject)), nil
}
