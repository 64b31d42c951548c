package chunk

import (
	"fmt"

	"github.com/tanq16/chunkr/internal/utils"
)

// ByteRange is an inclusive [Start, End] byte interval.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// Header renders the range as an HTTP Range header value.
func (r ByteRange) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// Plan yields consecutive ranges of at most chunkSize bytes covering
// [0, total-1]. A Plan is consumed once by a single goroutine.
type Plan struct {
	cursor    int64
	total     int64
	chunkSize int64
}

func NewPlan(total, chunkSize int64) (*Plan, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero, got %d", utils.ErrInvalidConfiguration, chunkSize)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative file size %d", utils.ErrInvalidConfiguration, total)
	}
	return &Plan{total: total, chunkSize: chunkSize}, nil
}

// Next returns the next range, or false once the plan is exhausted.
// Checking the cursor against total rather than total-1 keeps a zero
// sized plan empty.
func (p *Plan) Next() (ByteRange, bool) {
	if p.cursor >= p.total {
		return ByteRange{}, false
	}
	start := p.cursor
	p.cursor += min(p.chunkSize, p.total-start)
	return ByteRange{Start: start, End: p.cursor - 1}, true
}

// Count is the total number of ranges the plan yields from the start.
func (p *Plan) Count() int64 {
	return (p.total + p.chunkSize - 1) / p.chunkSize
}

func (p *Plan) ChunkSize() int64 {
	return p.chunkSize
}
