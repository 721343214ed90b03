// Package filter decides which visited messages make it into the output.
// An empty filter allows everything, which is the default export behavior.
package filter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// Options captures the filtering configuration. Include and exclude modes
// are mutually exclusive.
type Options struct {
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

type patternSet struct {
	header []*regexp.Regexp
	body   []*regexp.Regexp
}

func (p patternSet) active() bool {
	return len(p.header) > 0 || len(p.body) > 0
}

func (p patternSet) matches(header, body []byte) bool {
	for _, re := range p.header {
		if re.Match(header) {
			return true
		}
	}
	for _, re := range p.body {
		if re.Match(body) {
			return true
		}
	}
	return false
}

// Filter holds compiled regex patterns applied to each message.
type Filter struct {
	include patternSet
	exclude patternSet
}

// New compiles the configured patterns into a Filter.
func New(opts Options) (*Filter, error) {
	f := &Filter{}

	var err error
	if f.include.header, err = compile(opts.IncludeHeader); err != nil {
		return nil, fmt.Errorf("include-header: %w", err)
	}
	if f.include.body, err = compile(opts.IncludeBody); err != nil {
		return nil, fmt.Errorf("include-body: %w", err)
	}
	if f.exclude.header, err = compile(opts.ExcludeHeader); err != nil {
		return nil, fmt.Errorf("exclude-header: %w", err)
	}
	if f.exclude.body, err = compile(opts.ExcludeBody); err != nil {
		return nil, fmt.Errorf("exclude-body: %w", err)
	}

	if f.include.active() && f.exclude.active() {
		return nil, fmt.Errorf("include and exclude filters are mutually exclusive")
	}

	return f, nil
}

// Allows reports whether a message with the given header and body passes
// the filter.
func (f *Filter) Allows(header, body []byte) bool {
	if f.include.active() {
		return f.include.matches(header, body)
	}
	if f.exclude.active() {
		return !f.exclude.matches(header, body)
	}
	return true
}

// SplitRawMessage splits a raw message into its header block and body.
func SplitRawMessage(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
