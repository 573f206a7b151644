package model

import "errors"

// ErrEmptyFilter is returned when a filter is supplied but has no conditions.
// Some index backends reject an empty predicate, so it is caught before any
// query is built.
var ErrEmptyFilter = errors.New("filter has no conditions")

// Filter is an optional equality predicate over entry metadata.
// A nil *Filter means unrestricted search; no filter clause is attached to the
// index query at all. A non-nil filter must have at least one condition set.
type Filter struct {
	Author   string `json:"author,omitempty"`
	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
	Year     string `json:"year,omitempty"`
}

// IsZero reports whether no condition is set.
func (f *Filter) IsZero() bool {
	return f.Author == "" && f.Title == "" && f.Language == "" && f.Year == ""
}

// Validate returns ErrEmptyFilter for a present-but-empty filter.
// A nil filter is valid and means no filtering.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.IsZero() {
		return ErrEmptyFilter
	}
	return nil
}
