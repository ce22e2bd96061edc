// Package models defines the domain types for sn2ssg.
package models

import "time"

// Note is one delimiter-bounded group of raw dump lines. The header region
// (boxed `| Key: Value |` lines between horizontal rules) is part of Lines;
// it is interpreted, not stripped, at parse time.
type Note struct {
	Lines []string
}

// Header holds the fields extracted from a note's header region.
// Tags preserves extraction order and keeps duplicates.
type Header struct {
	Title string
	Date  string
	Tags  []string
}

// HasTag reports whether the extracted tag list contains tag.
func (h Header) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RunReport summarizes one completed conversion cycle.
type RunReport struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Parsed      int       `json:"parsed"`
	Written     int       `json:"written"`
	Unchanged   int       `json:"unchanged"`
	FilesBefore int       `json:"files_before"`
	FilesAfter  int       `json:"files_after"`
}
