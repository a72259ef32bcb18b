// Package models contains domain models and entities.
package models

import (
	"errors"
	"time"
)

// MaxFormatLength matches the width of generation_stats.format.
const MaxFormatLength = 16

// GenerationStat is the number of identifiers of one format generated
// within a time bucket.
type GenerationStat struct {
	Format string    `json:"format"`
	Bucket time.Time `json:"bucket"`
	Count  int64     `json:"count"`
}

// FormatTotal aggregates generation counts for one format.
type FormatTotal struct {
	Format     string     `json:"format"`
	Count      int64      `json:"count"`
	Pending    int64      `json:"pending,omitempty"`
	LastBucket *time.Time `json:"last_bucket,omitempty"`
}

// Validation errors
var (
	ErrEmptyFormat   = errors.New("format cannot be empty")
	ErrFormatLength  = errors.New("format name too long")
	ErrNegativeCount = errors.New("count cannot be negative")
	ErrMissingBucket = errors.New("bucket cannot be zero")
)

// Validate validates the stat before it is persisted.
func (s *GenerationStat) Validate() error {
	if s.Format == "" {
		return ErrEmptyFormat
	}
	if len(s.Format) > MaxFormatLength {
		return ErrFormatLength
	}
	if s.Count < 0 {
		return ErrNegativeCount
	}
	if s.Bucket.IsZero() {
		return ErrMissingBucket
	}
	return nil
}
