package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationStat_Validate(t *testing.T) {
	bucket := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stat    GenerationStat
		wantErr error
	}{
		{
			name: "valid stat",
			stat: GenerationStat{Format: "ulid", Bucket: bucket, Count: 10},
		},
		{
			name: "zero count is valid",
			stat: GenerationStat{Format: "cuid", Bucket: bucket},
		},
		{
			name:    "empty format",
			stat:    GenerationStat{Bucket: bucket, Count: 1},
			wantErr: ErrEmptyFormat,
		},
		{
			name:    "format too long",
			stat:    GenerationStat{Format: "abcdefghijklmnopq", Bucket: bucket, Count: 1},
			wantErr: ErrFormatLength,
		},
		{
			name:    "negative count",
			stat:    GenerationStat{Format: "ulid", Bucket: bucket, Count: -1},
			wantErr: ErrNegativeCount,
		},
		{
			name:    "zero bucket",
			stat:    GenerationStat{Format: "ulid", Count: 1},
			wantErr: ErrMissingBucket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stat.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
