package sortmerge

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hupe1980/giscore/spill"
)

// Merge passes stream the current run through a reader with these watermarks.
const (
	mergeReaderLow  = 50
	mergeReaderHigh = 100
)

// DefaultMaxInMemory is the pending-tuple bound used by the engine facade.
const DefaultMaxInMemory = 10000

// Sorter sorts an unbounded stream of tuples with bounded memory.
//
// Added tuples collect in memory. Whenever maxInMemory would be exceeded,
// the pending tuples are sorted and merged with the run file on disk into a
// new run file. Iterator merges whatever is pending and streams the run in
// ascending order.
//
// Sorter is not safe for concurrent use. Callers must not mutate a tuple
// after adding it.
type Sorter struct {
	s           *spill.Session
	logger      *slog.Logger
	maxInMemory int

	pending []Tuple
	arity   int
	kinds   []elemKind

	run      *spill.File
	runCount int
	count    int

	iters    map[*Iterator]struct{}
	failed   error
	disposed bool
}

// New creates a Sorter that keeps at most maxInMemory tuples in memory.
// The session registry must include Registry().
func New(s *spill.Session, maxInMemory int) (*Sorter, error) {
	if maxInMemory < 1 {
		return nil, ErrInvalidMaxInMemory
	}
	if _, ok := s.Registry().Lookup(TupleTypeName); !ok {
		return nil, fmt.Errorf("sortmerge: session registry lacks %q", TupleTypeName)
	}
	return &Sorter{
		s:           s,
		logger:      s.Logger().With("component", "sortmerge", "sorter", s.NextSeq()),
		maxInMemory: maxInMemory,
		arity:       -1,
		iters:       make(map[*Iterator]struct{}),
	}, nil
}

// Add adds one tuple.
func (st *Sorter) Add(t Tuple) error {
	return st.AddAll([]Tuple{t})
}

// AddAll adds a batch of tuples. The whole batch is validated before any
// tuple is accepted.
func (st *Sorter) AddAll(batch []Tuple) error {
	if err := st.usable(); err != nil {
		return err
	}
	if err := st.validate(batch); err != nil {
		return err
	}

	for len(batch) > 0 {
		if len(st.pending)+len(batch) <= st.maxInMemory {
			st.pending = append(st.pending, batch...)
			st.count += len(batch)
			return nil
		}
		delta := st.maxInMemory - len(st.pending)
		st.pending = append(st.pending, batch[:delta]...)
		st.count += delta
		batch = batch[delta:]
		if err := st.merge(); err != nil {
			return err
		}
	}
	return nil
}

func (st *Sorter) validate(batch []Tuple) error {
	arity := st.arity
	kinds := slices.Clone(st.kinds)

	for i, t := range batch {
		if t == nil {
			return fmt.Errorf("%w at batch index %d", ErrNilTuple, i)
		}
		if arity < 0 {
			arity = len(t)
			kinds = make([]elemKind, arity)
		}
		if len(t) != arity {
			return fmt.Errorf("%w: got %d elements, want %d", ErrArityMismatch, len(t), arity)
		}
		for pos, v := range t {
			ek := elemKindOf(v)
			switch {
			case ek.kind == kindUnsupported:
				return fmt.Errorf("sortmerge: element %d has unsupported type %T", pos, v)
			case ek.kind == kindNil:
			case kinds[pos].kind == kindNil:
				kinds[pos] = ek
			case kinds[pos] != ek:
				return fmt.Errorf("%w at element %d: %s, earlier %s", ErrKindMismatch, pos, describe(ek), describe(kinds[pos]))
			}
		}
	}

	st.arity, st.kinds = arity, kinds
	return nil
}

func describe(k elemKind) string {
	if k.name != "" {
		return fmt.Sprintf("%s %s", k.kind, k.name)
	}
	return k.kind.String()
}

// Len returns the number of tuples added.
func (st *Sorter) Len() int { return st.count }

// Iterator merges the pending tuples and returns an iterator over all tuples
// added so far in ascending order. Tuples added later are not visible to it.
func (st *Sorter) Iterator() (*Iterator, error) {
	if err := st.usable(); err != nil {
		return nil, err
	}
	if err := st.merge(); err != nil {
		return nil, err
	}

	it := &Iterator{st: st}
	if st.run != nil {
		r, err := st.s.OpenReader(st.run.Path(), 0, 0)
		if err != nil {
			return nil, err
		}
		it.r = r
	}
	st.iters[it] = struct{}{}
	return it, nil
}

// Dispose closes live iterators, deletes the run file and drops pending
// tuples. It is safe to call more than once.
func (st *Sorter) Dispose() error {
	if st.disposed {
		return nil
	}
	st.disposed = true

	var err error
	for it := range st.iters {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if st.run != nil {
		if rerr := st.run.Remove(); rerr != nil && err == nil {
			err = rerr
		}
		st.run = nil
	}
	clear(st.pending)
	st.pending = nil
	st.logger.Debug("sorter disposed", "tuples", st.count)
	return err
}

func (st *Sorter) usable() error {
	switch {
	case st.disposed:
		return ErrDisposed
	case st.failed != nil:
		return fmt.Errorf("%w: %w", ErrSorterFailed, st.failed)
	}
	return nil
}

// merge sorts the pending tuples and merges them with the current run into a
// new run. On ties the run element comes first, which keeps the sort stable
// across passes.
func (st *Sorter) merge() (err error) {
	if len(st.pending) == 0 {
		return nil
	}

	start := time.Now()
	total := st.runCount + len(st.pending)
	defer func() {
		st.s.Metrics().RecordMerge(total, time.Since(start), err)
	}()

	slices.SortStableFunc(st.pending, Compare)

	out, err := st.s.CreateFile("sort", ".run")
	if err != nil {
		return st.fail(err)
	}

	if err := st.mergeInto(out); err != nil {
		_ = out.Remove()
		return st.fail(err)
	}
	if err := out.Seal(); err != nil {
		_ = out.Remove()
		return st.fail(err)
	}

	if st.run != nil {
		_ = st.run.Remove()
	}
	st.run = out
	st.runCount = total
	clear(st.pending)
	st.pending = st.pending[:0]

	st.logger.Debug("merge pass complete", "tuples", total, "path", out.Path(), "duration", time.Since(start))
	return nil
}

func (st *Sorter) mergeInto(out *spill.File) error {
	mem := st.pending
	emit := func(t Tuple) error {
		return out.Write(&tupleRecord{t: t})
	}

	if st.run != nil {
		r, err := st.s.OpenReader(st.run.Path(), mergeReaderLow, mergeReaderHigh)
		if err != nil {
			return err
		}
		defer r.Close()

		for {
			obj, err := r.Peek()
			if err != nil {
				return err
			}
			if obj == nil {
				break
			}
			rec, ok := obj.(*tupleRecord)
			if !ok {
				return fmt.Errorf("sortmerge: unexpected %s in run %s", obj.TypeName(), st.run.Path())
			}
			if len(mem) > 0 && Compare(rec.t, mem[0]) > 0 {
				if err := emit(mem[0]); err != nil {
					return err
				}
				mem = mem[1:]
				continue
			}
			if _, err := r.Read(); err != nil {
				return err
			}
			if err := emit(rec.t); err != nil {
				return err
			}
		}
	}

	for _, t := range mem {
		if err := emit(t); err != nil {
			return err
		}
	}
	return nil
}

func (st *Sorter) fail(err error) error {
	st.failed = err
	st.logger.Error("merge failed", "error", err)
	return fmt.Errorf("%w: %w", ErrSorterFailed, err)
}
