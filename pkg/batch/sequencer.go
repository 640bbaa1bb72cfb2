package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/logging"
)

// DefaultInterval is the number of frames between consecutive snapshots
const DefaultInterval = 24

// Importer imports one snapshot pair at a frame
type Importer interface {
	ImportFiles(ctx context.Context, nodesPath, edgesPath string, frame int) (*importer.Report, error)
}

// Frame returns the frame of the pair at index i
func Frame(i, interval int) int {
	return i * interval
}

// Run imports pairs[start:] in order, pair i at frame i*interval. The first
// failing pair aborts the batch; reports of the pairs imported before it
// are returned along with the error.
func Run(ctx context.Context, imp Importer, pairs []Pair, interval, start int) ([]*importer.Report, error) {
	if interval < 1 {
		return nil, fmt.Errorf("frame interval must be at least 1, got %d", interval)
	}
	if start < 0 || start > len(pairs) {
		return nil, fmt.Errorf("start index %d out of range [0, %d]", start, len(pairs))
	}

	return importFrom(ctx, imp, pairs[start:], interval, start)
}

// importFrom imports pairs in order, the i-th at frame (offset+i)*interval
func importFrom(ctx context.Context, imp Importer, pairs []Pair, interval, offset int) ([]*importer.Report, error) {
	reports := make([]*importer.Report, 0, len(pairs))
	for j, p := range pairs {
		i := offset + j
		if err := ctx.Err(); err != nil {
			return reports, fmt.Errorf("batch stopped before pair %d: %w", i, err)
		}

		frame := Frame(i, interval)
		logging.DebugContext(ctx, "importing pair", "index", i, "frame", frame, "nodes", p.Nodes, "edges", p.Edges)

		rep, err := imp.ImportFiles(ctx, p.Nodes, p.Edges, frame)
		if err != nil {
			return reports, fmt.Errorf("batch aborted at pair %d (frame %d): %w", i, frame, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Sequencer imports a growing folder incrementally. It remembers which
// table files were imported, so a rewrite that changes a file's place in
// the modification-time order does not shift later frames.
type Sequencer struct {
	mu       sync.Mutex
	imp      Importer
	interval int
	done     int
	seen     map[string]bool
}

// NewSequencer creates a sequencer importing through imp
func NewSequencer(imp Importer, interval int) (*Sequencer, error) {
	if interval < 1 {
		return nil, fmt.Errorf("frame interval must be at least 1, got %d", interval)
	}
	return &Sequencer{imp: imp, interval: interval, seen: make(map[string]bool)}, nil
}

// Advance imports the pairs not imported by earlier calls. Tables already
// imported are dropped from both sides before the remaining ones are
// paired up again in order, and the new pairs continue the frame sequence.
func (s *Sequencer) Advance(ctx context.Context, pairs []Pair) ([]*importer.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending(pairs)
	if len(pending) == 0 {
		logging.DebugContext(ctx, "no new pairs", "imported", s.done)
		return nil, nil
	}

	reports, err := importFrom(ctx, s.imp, pending, s.interval, s.done)
	for _, p := range pending[:len(reports)] {
		s.seen[p.Nodes] = true
		s.seen[p.Edges] = true
	}
	s.done += len(reports)
	return reports, err
}

func (s *Sequencer) pending(pairs []Pair) []Pair {
	var nodes, edges []string
	for _, p := range pairs {
		if !s.seen[p.Nodes] {
			nodes = append(nodes, p.Nodes)
		}
		if !s.seen[p.Edges] {
			edges = append(edges, p.Edges)
		}
	}

	n := min(len(nodes), len(edges))
	out := make([]Pair, n)
	for i := 0; i < n; i++ {
		out[i] = Pair{Nodes: nodes[i], Edges: edges[i]}
	}
	return out
}

// Imported returns the number of pairs imported so far
func (s *Sequencer) Imported() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// NextFrame returns the frame the next pair will be imported at
func (s *Sequencer) NextFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Frame(s.done, s.interval)
}
