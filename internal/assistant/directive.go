package assistant

import (
	"regexp"
	"strings"
)

// directivePattern matches the one machine-readable marker the model may
// embed in otherwise natural-language output.
var directivePattern = regexp.MustCompile(`\[IMAGE:(\w+)\]`)

// Answer is the parsed form of a raw model answer: the visible text with
// the directive stripped, plus the directive tag when one was present.
type Answer struct {
	Text string
	Tag  string
}

func (a Answer) HasDirective() bool {
	return a.Tag != ""
}

// ParseAnswer scans raw answer text for at most one [IMAGE:tag] directive.
// Only the first occurrence is honored and stripped; any further
// occurrences stay in the visible text untouched.
func ParseAnswer(raw string) Answer {
	match := directivePattern.FindStringSubmatchIndex(raw)
	if match == nil {
		return Answer{Text: raw}
	}

	tag := raw[match[2]:match[3]]
	text := strings.TrimSpace(raw[:match[0]] + raw[match[1]:])

	return Answer{Text: text, Tag: tag}
}
