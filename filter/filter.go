// Package filter applies regex include/exclude rules to raw messages before
// they are analyzed, so statistics can be limited to a subset of an archive.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type mode int

const (
	modeOff mode = iota
	modeInclude
	modeExclude
)

// Options captures the filtering configuration. Include and exclude rules
// are mutually exclusive.
type Options struct {
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

type ruleSet struct {
	header []*regexp.Regexp
	body   []*regexp.Regexp
}

func (r ruleSet) empty() bool {
	return len(r.header) == 0 && len(r.body) == 0
}

func (r ruleSet) matches(header, body []byte) bool {
	return matchAny(r.header, header) || matchAny(r.body, body)
}

// Filter holds compiled regex patterns for filtering messages.
type Filter struct {
	mode    mode
	include ruleSet
	exclude ruleSet
}

// New compiles the configured patterns into a Filter. A Filter built from
// empty Options allows everything.
func New(opts Options) (*Filter, error) {
	include, err := compileRules(opts.IncludeHeader, opts.IncludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile include pattern: %w", err)
	}
	exclude, err := compileRules(opts.ExcludeHeader, opts.ExcludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile exclude pattern: %w", err)
	}

	if !include.empty() && !exclude.empty() {
		return nil, fmt.Errorf("include and exclude filters are mutually exclusive")
	}

	f := &Filter{include: include, exclude: exclude}
	switch {
	case !include.empty():
		f.mode = modeInclude
	case !exclude.empty():
		f.mode = modeExclude
	}
	return f, nil
}

// Active reports whether any rule is configured.
func (f *Filter) Active() bool {
	return f.mode != modeOff
}

// Allows returns true if the message passes the filter criteria.
func (f *Filter) Allows(header, body []byte) bool {
	switch f.mode {
	case modeInclude:
		return f.include.matches(header, body)
	case modeExclude:
		return !f.exclude.matches(header, body)
	default:
		return true
	}
}

func compileRules(header, body []string) (ruleSet, error) {
	compiledHeader, err := compilePatterns(header)
	if err != nil {
		return ruleSet{}, err
	}
	compiledBody, err := compilePatterns(body)
	if err != nil {
		return ruleSet{}, err
	}
	return ruleSet{header: compiledHeader, body: compiledBody}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
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

func matchAny(patterns []*regexp.Regexp, text []byte) bool {
	for _, re := range patterns {
		if re.Match(text) {
			return true
		}
	}
	return false
}
