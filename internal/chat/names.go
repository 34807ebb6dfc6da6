package chat

import (
	"regexp"
	"strings"
)

// Self-introduction patterns, in priority order. Extraction uses the first
// pattern that captures; detection additionally accepts a bare word so a
// one-word reply to "what's your name?" still counts.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)my name is ([A-Za-zÀ-ÿ]+)`),
	regexp.MustCompile(`(?i)you can call me ([A-Za-zÀ-ÿ]+)`),
	regexp.MustCompile(`(?i)call me ([A-Za-zÀ-ÿ]+)`),
	regexp.MustCompile(`(?i)i am ([A-Za-zÀ-ÿ]+)`),
	regexp.MustCompile(`(?i)i'm ([A-Za-zÀ-ÿ]+)`),
}

// bareWordPattern matches an entire trimmed input that is one plausible name
// token: 2-20 letters, accents allowed, no digits or punctuation.
var bareWordPattern = regexp.MustCompile(`^[A-Za-zÀ-ÿ]{2,20}$`)

// LooksLikeName reports whether text reads like a self-introduction
func LooksLikeName(text string) bool {
	trimmed := strings.TrimSpace(text)

	for _, pattern := range namePatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}

	return bareWordPattern.MatchString(trimmed)
}

// ExtractName pulls the name token out of a self-introduction. The patterns
// are tried in the same priority order as LooksLikeName; if none captures,
// the first whitespace-delimited token of the trimmed input is returned.
// Never returns "" for non-empty input.
func ExtractName(text string) string {
	trimmed := strings.TrimSpace(text)

	for _, pattern := range namePatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			return match[1]
		}
	}

	if fields := strings.Fields(trimmed); len(fields) > 0 {
		return fields[0]
	}

	return trimmed
}
