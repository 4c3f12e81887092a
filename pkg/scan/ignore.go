package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// IgnoreFileName is the optional per-project pattern file consulted by the
// scanner in addition to the built-in name set.
const IgnoreFileName = ".aiexportignore"

// Precompiled regular expressions used in pattern parsing.
var (
	doubleStarMiddlePattern      = regexp.MustCompile(`/\*\*/`)
	doubleStarTrailingPattern    = regexp.MustCompile(`/\*\*$`)
	doubleStarLeadingPattern     = regexp.MustCompile(`^\*\*/`)
	singleStarReplacementPattern = regexp.MustCompile(`\*`)
	directoryEndPattern          = regexp.MustCompile(`/$`)
	rootRelativePattern          = regexp.MustCompile(`^/`)
)

// IgnorePattern encapsulates a compiled regular expression pattern,
// a negation flag, and the original pattern line.
type IgnorePattern struct {
	Pattern *regexp.Regexp // Compiled regular expression for the pattern.
	Negate  bool           // Indicates if the pattern is a negation (starts with '!').
	LineNo  int            // Line number in the source (1-based).
	Line    string         // Original pattern line.
}

// PatternSet represents a collection of ignore patterns matched against
// root-relative, forward-slash paths.
type PatternSet struct {
	patterns []*IgnorePattern
	logger   *zap.Logger
}

// NewPatternSet initializes an empty PatternSet with a provided logger.
func NewPatternSet(logger *zap.Logger) *PatternSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatternSet{logger: logger}
}

// LoadPatternFile reads an ignore file and compiles its lines. A missing
// file yields an empty set, matching nothing.
func LoadPatternFile(path string, logger *zap.Logger) (*PatternSet, error) {
	ps := NewPatternSet(logger)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ps, nil
		}
		return nil, err
	}

	ps.CompileLines(strings.Split(string(content), "\n")...)
	ps.logger.Debug("Loaded ignore pattern file",
		zap.String("filePath", path),
		zap.Int("patternCount", len(ps.patterns)))
	return ps, nil
}

// CompileLines compiles a set of ignore pattern lines into the PatternSet.
// Empty lines and comments are skipped.
func (ps *PatternSet) CompileLines(lines ...string) {
	for i, line := range lines {
		pattern, negate := parsePatternLine(line, i+1, ps.logger)
		if pattern == nil {
			continue
		}
		ps.patterns = append(ps.patterns, &IgnorePattern{
			Pattern: pattern,
			Negate:  negate,
			LineNo:  i + 1,
			Line:    line,
		})
	}
}

// MatchesPath checks if the given root-relative path matches any of the
// ignore patterns. Later patterns win, so negations can re-include paths.
func (ps *PatternSet) MatchesPath(path string) bool {
	if ps == nil {
		return false
	}
	normalized := filepath.ToSlash(path)

	matched := false
	for _, pattern := range ps.patterns {
		if pattern.Pattern.MatchString(normalized) {
			matched = !pattern.Negate
		}
	}
	return matched
}

// parsePatternLine processes a single line from an ignore file and returns
// a compiled regular expression and a negation flag.
// Returns nil if the line is a comment or empty.
func parsePatternLine(line string, lineNo int, logger *zap.Logger) (*regexp.Regexp, bool) {
	trimmedLine := strings.TrimSpace(line)

	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return nil, false
	}

	negate := false
	if strings.HasPrefix(trimmedLine, "!") {
		negate = true
		trimmedLine = strings.TrimPrefix(trimmedLine, "!")
	}

	escapedLine := escapeSpecialChars(trimmedLine)
	escapedLine = handleDoubleStarPatterns(escapedLine)
	regexPattern := wildcardToRegex(escapedLine)
	regexPattern = anchorPattern(regexPattern, trimmedLine)

	compiledRegex, err := regexp.Compile(regexPattern)
	if err != nil {
		logger.Warn("Invalid ignore pattern",
			zap.String("pattern", trimmedLine),
			zap.Int("lineNo", lineNo),
			zap.Error(err))
		return nil, false
	}

	return compiledRegex, negate
}

// escapeSpecialChars escapes regex special characters except for '*', '?', and '/'.
func escapeSpecialChars(pattern string) string {
	specialChars := `.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}

// handleDoubleStarPatterns replaces '**' patterns with appropriate regex.
func handleDoubleStarPatterns(pattern string) string {
	pattern = doubleStarMiddlePattern.ReplaceAllString(pattern, `(/|/.+/)`)
	pattern = doubleStarTrailingPattern.ReplaceAllString(pattern, `(/.*)?`)
	pattern = doubleStarLeadingPattern.ReplaceAllString(pattern, `(.*/)?`)
	return pattern
}

// wildcardToRegex converts wildcard patterns '*' and '?' to regex equivalents.
func wildcardToRegex(pattern string) string {
	pattern = singleStarReplacementPattern.ReplaceAllString(pattern, `[^/]*`)
	pattern = strings.ReplaceAll(pattern, "?", ".")
	return pattern
}

// anchorPattern anchors the regex pattern to match the entire path.
func anchorPattern(pattern string, originalPattern string) string {
	if directoryEndPattern.MatchString(originalPattern) {
		pattern = strings.TrimSuffix(pattern, "/") + "(/.*)?$"
	} else {
		pattern = pattern + "(|/.*)?$"
	}

	if rootRelativePattern.MatchString(originalPattern) {
		return "^" + strings.TrimPrefix(pattern, "/")
	}
	return "^(|.*/)" + pattern
}
