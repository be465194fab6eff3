package translate

import "strings"

// TagFilter decides whether an operation's tag makes it into the output.
// Labels are compared case-insensitively.
type TagFilter struct {
	include map[string]bool
	exclude map[string]bool
}

// NewTagFilter builds a filter from optional allow and deny lists.
func NewTagFilter(include, exclude []string) *TagFilter {
	return &TagFilter{include: labelSet(include), exclude: labelSet(exclude)}
}

func labelSet(labels []string) map[string]bool {
	if len(labels) == 0 {
		return nil
	}
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToUpper(l)] = true
	}
	return set
}

// Validate reports whether tag passes the filter: an include list, when set,
// must contain it, and an exclude list, when set, must not.
func (f *TagFilter) Validate(tag string) bool {
	if f == nil {
		return true
	}
	tag = strings.ToUpper(tag)
	if f.include != nil && !f.include[tag] {
		return false
	}
	if f.exclude != nil && f.exclude[tag] {
		return false
	}
	return true
}
