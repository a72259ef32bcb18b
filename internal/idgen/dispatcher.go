package idgen

import (
	"context"
	"fmt"
)

// Batch bounds. Requested counts outside the range are clamped.
const (
	MinBatchSize = 1
	MaxBatchSize = 100
)

// Recorder observes successful generation.
type Recorder interface {
	RecordGenerated(format Format, count int)
}

// Options configures a Dispatcher. Zero values select the defaults.
type Options struct {
	Random         RandomSource // default: crypto/rand
	Clock          Clock        // default: system clock
	Counter        *Counter     // default: seeded from Random
	NanoIDSize     int          // default: 21
	NanoIDAlphabet string       // default: NanoIDAlphabet
	Recorder       Recorder     // optional
}

// Dispatcher maps formats to their generators.
type Dispatcher struct {
	generators map[Format]Generator
	counter    *Counter
	nanoid     *NanoIDGenerator
	recorder   Recorder
}

// NewDispatcher creates a Dispatcher for all supported formats.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Random == nil {
		opts.Random = NewCryptoSource()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.NanoIDSize == 0 {
		opts.NanoIDSize = DefaultNanoIDSize
	}
	if opts.Counter == nil {
		counter, err := NewRandomCounter(opts.Random)
		if err != nil {
			return nil, err
		}
		opts.Counter = counter
	}

	nanoid, err := NewNanoIDGenerator(opts.Random, opts.NanoIDSize, opts.NanoIDAlphabet)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		generators: map[Format]Generator{
			FormatUUIDv4: NewUUIDv4Generator(opts.Random),
			FormatUUIDv7: NewUUIDv7Generator(opts.Random, opts.Clock),
			FormatULID:   NewULIDGenerator(opts.Random, opts.Clock),
			FormatNanoID: nanoid,
			FormatCUID:   NewCUIDGenerator(opts.Random, opts.Clock, opts.Counter),
		},
		counter:  opts.Counter,
		nanoid:   nanoid,
		recorder: opts.Recorder,
	}, nil
}

// Generate creates one identifier of the given format.
func (d *Dispatcher) Generate(format Format) (string, error) {
	id, err := d.generate(format)
	if err != nil {
		return "", err
	}
	d.record(format, 1)
	return id, nil
}

// GenerateBatch creates ClampCount(count) identifiers in call order.
func (d *Dispatcher) GenerateBatch(format Format, count int) ([]string, error) {
	return d.GenerateBatchContext(context.Background(), format, count)
}

// GenerateBatchContext is GenerateBatch with cancellation checked before
// each identifier. A cancelled batch returns ctx.Err(), no identifiers,
// and records nothing.
func (d *Dispatcher) GenerateBatchContext(ctx context.Context, format Format, count int) ([]string, error) {
	gen, err := d.generator(format)
	if err != nil {
		return nil, err
	}

	n := ClampCount(count)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := gen.Generate()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	d.record(format, n)
	return ids, nil
}

// Inspect decodes id using this dispatcher's NanoID alphabet.
func (d *Dispatcher) Inspect(format Format, id string) (*ParseResult, error) {
	return inspect(format, id, d.nanoid.Alphabet())
}

// Counter returns the CUID counter.
func (d *Dispatcher) Counter() *Counter {
	return d.counter
}

// NanoIDSize returns the configured NanoID length.
func (d *Dispatcher) NanoIDSize() int {
	return d.nanoid.Size()
}

func (d *Dispatcher) generate(format Format) (string, error) {
	gen, err := d.generator(format)
	if err != nil {
		return "", err
	}
	return gen.Generate()
}

func (d *Dispatcher) generator(format Format) (Generator, error) {
	gen, ok := d.generators[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return gen, nil
}

func (d *Dispatcher) record(format Format, n int) {
	if d.recorder != nil {
		d.recorder.RecordGenerated(format, n)
	}
}

// ClampCount limits count to [MinBatchSize, MaxBatchSize].
func ClampCount(count int) int {
	if count < MinBatchSize {
		return MinBatchSize
	}
	if count > MaxBatchSize {
		return MaxBatchSize
	}
	return count
}

// MultiRecorder fans a generation event out to several recorders.
type MultiRecorder []Recorder

// RecordGenerated notifies every non-nil recorder in order.
func (m MultiRecorder) RecordGenerated(format Format, count int) {
	for _, r := range m {
		if r != nil {
			r.RecordGenerated(format, count)
		}
	}
}
