package modem

import (
	"context"
	"fmt"
	"io"
	"log"
)

// Symbols pulled per Next call. One batch of 256 symbols keeps the
// per-call overhead small without holding more than a few KiB of samples.
const symbolsPerBatch = 256

// Config is the full configuration surface of a modulation pipeline.
type Config struct {
	BitsPerSymbol    int     // k; 2^k must equal the table size
	SamplesPerSymbol int     // L, interpolation factor
	RollOff          float64 // RRC roll-off β ∈ (0,1]
	FilterSpan       int     // RRC truncation span in symbol periods
	Differential     bool    // differential phase encoding on/off
	BitOrder         BitOrder
	PartialGroup     PartialPolicy
	SymbolRate       float64 // symbols/s, for rate bookkeeping; 0 if unused
}

// DefaultConfig matches the reference 16-QAM transmitter: 4 bits per
// symbol LSB-first, differential encoding, 2 samples per symbol, 0.35
// roll-off, an 11-symbol filter span, partial trailing groups dropped.
func DefaultConfig() Config {
	return Config{
		BitsPerSymbol:    4,
		SamplesPerSymbol: 2,
		RollOff:          0.35,
		FilterSpan:       11,
		Differential:     true,
		BitOrder:         LSBFirst,
		PartialGroup:     DropPartial,
	}
}

// SampleRate returns the output sample rate, SymbolRate × SamplesPerSymbol.
func (c Config) SampleRate() float64 {
	return c.SymbolRate * float64(c.SamplesPerSymbol)
}

// SymbolRateFor converts a byte-source bit rate to the symbol rate it
// drives through a k-bit grouper.
func SymbolRateFor(bitRate float64, k int) float64 {
	return bitRate / float64(k)
}

// Pipeline composes the whole modulation chain: bytes from the source are
// regrouped into labels, optionally differentially encoded, mapped to
// constellation points and pulse-shaped into a complex baseband sample
// stream. Output is produced incrementally, one batch per Next call, by
// pulling from the source on demand.
//
// A pipeline owns its grouper, encoder state and filter history
// exclusively; the constellation and kernel it holds are shared
// read-only and may back other pipelines concurrently.
type Pipeline struct {
	cfg     Config
	table   *Constellation
	grouper *BitGrouper
	enc     *DiffEncoder
	shaper  *Shaper

	src     io.Reader
	labels  []int
	symbols []complex128
	flushed bool
	done    bool
}

// NewPipeline builds a pipeline over a byte source. A nil table selects
// the canonical square grid for cfg.BitsPerSymbol. Configuration errors
// wrap ErrConfig.
func NewPipeline(cfg Config, table *Constellation, src io.Reader) (*Pipeline, error) {
	if table == nil {
		if cfg.BitsPerSymbol%2 != 0 {
			return nil, fmt.Errorf("%w: no canonical square table for %d bits per symbol", ErrConfig, cfg.BitsPerSymbol)
		}
		var err error
		table, err = Square(1 << (cfg.BitsPerSymbol / 2))
		if err != nil {
			return nil, err
		}
	}
	if table.BitsPerSymbol() != cfg.BitsPerSymbol {
		return nil, fmt.Errorf("%w: table carries %d bits per symbol, config wants %d",
			ErrConfig, table.BitsPerSymbol(), cfg.BitsPerSymbol)
	}

	grouper, err := NewBitGrouper(src, cfg.BitsPerSymbol, cfg.BitOrder, cfg.PartialGroup)
	if err != nil {
		return nil, err
	}

	var enc *DiffEncoder
	if cfg.Differential {
		enc, err = NewDiffEncoder(table)
		if err != nil {
			return nil, err
		}
	}

	kernel, err := NewRRCKernel(cfg.SamplesPerSymbol, cfg.RollOff, cfg.FilterSpan)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		table:   table,
		grouper: grouper,
		enc:     enc,
		shaper:  NewShaper(kernel),
		src:     src,
		labels:  make([]int, 0, symbolsPerBatch),
		symbols: make([]complex128, 0, symbolsPerBatch),
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Table returns the shared constellation.
func (p *Pipeline) Table() *Constellation { return p.table }

// Kernel returns the shared filter kernel.
func (p *Pipeline) Kernel() *RRCKernel { return p.shaper.kernel }

// Next produces the next batch of baseband samples. It returns io.EOF
// after the source is exhausted and the filter tail has been emitted.
// Cancelling ctx stops the pipeline before the next source pull;
// cancellation is terminal.
func (p *Pipeline) Next(ctx context.Context) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.done {
		return nil, io.EOF
	}

	p.labels = p.labels[:0]
	for len(p.labels) < symbolsPerBatch {
		label, err := p.grouper.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if p.enc != nil {
			label = p.enc.Encode(label)
		}
		p.labels = append(p.labels, label)
	}

	if len(p.labels) == 0 {
		if p.flushed {
			p.finish()
			return nil, io.EOF
		}
		p.flushed = true
		tail := p.shaper.Flush(nil)
		if len(tail) == 0 {
			p.finish()
			return nil, io.EOF
		}
		return tail, nil
	}

	p.symbols = p.symbols[:0]
	for _, l := range p.labels {
		p.symbols = append(p.symbols, p.table.Point(l))
	}
	return p.shaper.Shape(nil, p.symbols), nil
}

func (p *Pipeline) finish() {
	p.done = true
	if n := p.grouper.Dropped(); n > 0 {
		log.Printf("modulator: dropped %d trailing bits short of a full symbol", n)
	}
}

// Run pulls batches until the stream ends or ctx is cancelled, pushing
// each batch to write. It returns the total sample count; a nil error
// means the source ran dry and the tail was flushed.
func (p *Pipeline) Run(ctx context.Context, write func([]complex128) error) (int, error) {
	total := 0
	for {
		batch, err := p.Next(ctx)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if err := write(batch); err != nil {
			return total, fmt.Errorf("sink: %w", err)
		}
		total += len(batch)
	}
}

// Reset restores the stream-start state: differential encoder phase and
// filter history are zeroed and the end-of-stream latches cleared. The
// caller is responsible for rewinding the byte source; a looping source
// that never signals EOF instead carries encoder state and filter history
// across repeat boundaries as one continuous transmission.
func (p *Pipeline) Reset() {
	if p.enc != nil {
		p.enc.Reset()
	}
	p.shaper.Reset()
	p.grouper.acc = 0
	p.grouper.nbits = 0
	p.grouper.done = false
	p.grouper.dropped = 0
	p.flushed = false
	p.done = false
}
