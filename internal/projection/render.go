package projection

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/schedlab/schedlab/internal/sched"
)

// Format selects human-readable or CSV rendering.
type Format int

const (
	FormatHuman Format = iota
	FormatCSV
)

// HeaderState guards against printing a CSV header more than once, so the
// header appears exactly once and precedes all data rows even if
// Renderer.Emit is called concurrently — which it currently is not, since
// the consumer is single-threaded, but the guard costs nothing and removes
// the hazard if that ever changes.
type HeaderState struct {
	mu      sync.Mutex
	written bool
}

func (h *HeaderState) shouldWrite() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.written {
		return false
	}
	h.written = true
	return true
}

// Renderer writes one Projection's output in the selected format.
type Renderer struct {
	proj       Projection
	format     Format
	printHeader bool
	header     HeaderState
	w          io.Writer
	csvw       *csv.Writer
}

// NewRenderer builds a renderer for proj. printHeader is only meaningful
// for FormatCSV; it corresponds to --csv-header.
func NewRenderer(proj Projection, format Format, printHeader bool, w io.Writer) *Renderer {
	r := &Renderer{proj: proj, format: format, printHeader: printHeader, w: w}
	if format == FormatCSV {
		r.csvw = csv.NewWriter(w)
	}
	return r
}

// Emit renders ev if the projection triggers on its kind. It is a no-op
// otherwise, and returns whether anything was written.
func (r *Renderer) Emit(ev *sched.Event, snap sched.Aggregate) (bool, error) {
	if !r.proj.Triggers(ev.Kind) {
		return false, nil
	}

	if r.format == FormatCSV {
		return r.emitCSV(ev, snap)
	}
	return r.emitHuman(ev, snap)
}

func (r *Renderer) emitCSV(ev *sched.Event, snap sched.Aggregate) (bool, error) {
	if r.printHeader && r.header.shouldWrite() {
		if err := r.csvw.Write(r.proj.Header()); err != nil {
			return false, fmt.Errorf("write csv header: %w", err)
		}
	}

	row, ok := r.proj.Row(ev, snap)
	if !ok {
		return false, nil
	}
	if err := r.csvw.Write(row); err != nil {
		return false, fmt.Errorf("write csv row: %w", err)
	}
	r.csvw.Flush()
	return true, r.csvw.Error()
}

func (r *Renderer) emitHuman(ev *sched.Event, snap sched.Aggregate) (bool, error) {
	line, ok := r.proj.Line(ev, snap)
	if !ok {
		return false, nil
	}
	_, err := fmt.Fprintln(r.w, line)
	return true, err
}
