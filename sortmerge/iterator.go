package sortmerge

import (
	"fmt"
	"iter"

	"github.com/hupe1980/giscore/spill"
)

// Iterator walks a sorted run forward once.
//
//	it, err := sorter.Iterator()
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for it.Next() {
//	    t := it.Tuple()
//	    // ...
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
type Iterator struct {
	st  *Sorter
	r   *spill.Reader // nil for an empty sorter
	cur Tuple
	err error
}

// Next advances to the next tuple. It returns false at the end of the run or
// on error.
func (it *Iterator) Next() bool {
	it.cur = nil
	if it.err != nil || it.r == nil {
		return false
	}
	obj, err := it.r.Read()
	if err != nil {
		it.err = err
		return false
	}
	if obj == nil {
		return false
	}
	rec, ok := obj.(*tupleRecord)
	if !ok {
		it.err = fmt.Errorf("sortmerge: unexpected %s in run", obj.TypeName())
		return false
	}
	it.cur = rec.t
	return true
}

// Tuple returns the tuple Next advanced to.
func (it *Iterator) Tuple() Tuple { return it.cur }

// Err returns the first error encountered.
func (it *Iterator) Err() error { return it.err }

// All returns a range-over-func view of the remaining tuples. A failure is
// yielded once as the final pair.
func (it *Iterator) All() iter.Seq2[Tuple, error] {
	return func(yield func(Tuple, error) bool) {
		for it.Next() {
			if !yield(it.cur, nil) {
				return
			}
		}
		if it.err != nil {
			yield(nil, it.err)
		}
	}
}

// Close releases the iterator. It is safe to call more than once.
func (it *Iterator) Close() error {
	delete(it.st.iters, it)
	if it.r == nil {
		return nil
	}
	r := it.r
	it.r, it.cur = nil, nil
	return r.Close()
}
