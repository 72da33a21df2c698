// Package match decides whether an expected field value matches an
// observed one. Expected values are either literals, compared by exact
// string equality, or regular expression patterns.
package match

import (
	"regexp"
	"strings"
)

// IsPattern reports whether a stored expected value is treated as a
// regular expression rather than a literal. A value is a pattern iff it
// compiles as a regexp and is anchored at either end. Unanchored values
// stay literal so that plain strings containing regexp metacharacters
// (e.g. "a.b?x=1") keep exact-equality semantics. Anchored values that
// fail to compile degrade to literals instead of failing the run.
func IsPattern(expected string) bool {
	if !strings.HasPrefix(expected, "^") && !strings.HasSuffix(expected, "$") {
		return false
	}
	_, err := regexp.Compile(expected)
	return err == nil
}

// Matches reports whether observed satisfies expected. Pattern values
// use regexp matching; everything else uses exact string equality.
func Matches(expected, observed string) bool {
	if IsPattern(expected) {
		return regexp.MustCompile(expected).MatchString(observed)
	}
	return expected == observed
}
