// Package services contains business logic.
package services

import (
	"context"
	"errors"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/metrics"
	"github.com/gourl/idforge/pkg/logger"
)

// GenerateResult is the outcome of one generation request.
type GenerateResult struct {
	Format idgen.Format
	IDs    []string
}

// IDService defines the identifier operations exposed to transports.
type IDService interface {
	Formats() []idgen.FormatInfo
	Generate(ctx context.Context, format string, count int) (*GenerateResult, error)
	Inspect(ctx context.Context, format, id string) (*idgen.ParseResult, error)
}

// IDServiceImpl implements IDService on top of an idgen.Dispatcher.
type IDServiceImpl struct {
	dispatcher *idgen.Dispatcher
	log        *logger.Logger
}

// NewIDService creates a new IDService.
func NewIDService(d *idgen.Dispatcher, log *logger.Logger) *IDServiceImpl {
	if log == nil {
		log = logger.Nop()
	}
	return &IDServiceImpl{dispatcher: d, log: log}
}

// Formats lists the supported formats in display order.
func (s *IDServiceImpl) Formats() []idgen.FormatInfo {
	return idgen.Formats()
}

// Generate produces idgen.ClampCount(count) identifiers of format.
// Cancellation is checked before each identifier; a cancelled batch
// returns ctx.Err() and no identifiers.
func (s *IDServiceImpl) Generate(ctx context.Context, format string, count int) (*GenerateResult, error) {
	f, err := idgen.ParseFormat(format)
	if err != nil {
		metrics.RecordGenerationFailure("unknown", "unknown_format")
		return nil, err
	}

	ids, err := s.dispatcher.GenerateBatchContext(ctx, f, count)
	switch {
	case err == nil:
		return &GenerateResult{Format: f, IDs: ids}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordGenerationFailure(f.String(), "canceled")
	default:
		s.fail(ctx, f, err)
	}
	return nil, err
}

// Inspect validates id as format and decodes its fields.
func (s *IDServiceImpl) Inspect(ctx context.Context, format, id string) (*idgen.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := idgen.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	return s.dispatcher.Inspect(f, id)
}

func (s *IDServiceImpl) fail(ctx context.Context, f idgen.Format, err error) {
	reason := "internal"
	if errors.Is(err, idgen.ErrRandomSourceUnavailable) {
		reason = "random_source"
	}
	metrics.RecordGenerationFailure(f.String(), reason)
	logger.FromContext(ctx, s.log).Error("id generation failed", "format", f.String(), "reason", reason, "error", err)
}
