// Package masking implements the sanitization core: parameter name
// matching, email detection and masking, and the actions that remove or
// anonymize matched parameters while keeping per-run bookkeeping.
package masking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher sentinel errors. Both indicate configuration problems and are
// surfaced before any graph mutation is attempted.
var (
	// ErrEmptyPattern indicates a missing or degenerate pattern (e.g. "/"
	// or "//", whose regex body is empty and would match everything).
	ErrEmptyPattern = errors.New("empty match pattern")

	// ErrInvalidPattern indicates a pattern that failed to compile.
	ErrInvalidPattern = errors.New("invalid match pattern")
)

// Matcher classifies a parameter name as matching a user rule.
type Matcher interface {
	Matches(name string) bool
}

// PrefixMatcher matches parameter names by prefix. Strict mode compares
// case-sensitively; otherwise both sides are lower-cased.
type PrefixMatcher struct {
	prefix  string
	lowered string
	strict  bool
}

// NewPrefixMatcher creates a prefix matcher.
func NewPrefixMatcher(prefix string, strict bool) *PrefixMatcher {
	return &PrefixMatcher{
		prefix:  prefix,
		lowered: strings.ToLower(prefix),
		strict:  strict,
	}
}

// Matches reports whether name starts with the configured prefix.
func (m *PrefixMatcher) Matches(name string) bool {
	if m.strict {
		return strings.HasPrefix(name, m.prefix)
	}
	return strings.HasPrefix(strings.ToLower(name), m.lowered)
}

// PatternMatcher matches parameter names by a user pattern. Patterns wrapped
// in slashes are regular expressions searched anywhere in the name; a
// trailing "i" flag (`/…/i`) forces case-insensitive matching regardless of
// strict mode, which otherwise controls sensitivity. Any other pattern is a
// shell glob, lower-cased on both sides unless strict.
type PatternMatcher struct {
	re         *regexp.Regexp
	glob       glob.Glob
	lowerInput bool
}

// NewPatternMatcher compiles the pattern eagerly so configuration errors
// fail the run before any traversal starts.
func NewPatternMatcher(pattern string, strict bool) (*PatternMatcher, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	if strings.HasPrefix(pattern, "/") {
		// Regex form: "/body/" with an optional trailing "i" flag.
		candidate := pattern
		forceInsensitive := strings.HasSuffix(candidate, "/i")
		if forceInsensitive {
			candidate = strings.TrimSuffix(candidate, "i")
		}
		switch {
		case len(candidate) >= 2 && strings.HasSuffix(candidate, "/"):
			body := candidate[1 : len(candidate)-1]
			if body == "" {
				return nil, fmt.Errorf("%w: regex body of %q is empty", ErrEmptyPattern, pattern)
			}
			expr := body
			if forceInsensitive || !strict {
				expr = "(?i)" + body
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
			}
			return &PatternMatcher{re: re}, nil
		case candidate == "/":
			return nil, fmt.Errorf("%w: regex body of %q is empty", ErrEmptyPattern, pattern)
		}
		// Leading slash without a closing slash: plain glob.
	}

	globPattern := pattern
	lowerInput := false
	if !strict {
		globPattern = strings.ToLower(pattern)
		lowerInput = true
	}
	g, err := glob.Compile(globPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &PatternMatcher{glob: g, lowerInput: lowerInput}, nil
}

// Matches reports whether name matches the compiled pattern. Regex patterns
// use search semantics: a match anywhere in the name counts.
func (m *PatternMatcher) Matches(name string) bool {
	if m.re != nil {
		return m.re.MatchString(name)
	}
	if m.lowerInput {
		name = strings.ToLower(name)
	}
	return m.glob.Match(name)
}
