// Package sortmerge implements an external sort-merge over tuples of
// orderable values.
//
// A [Sorter] accumulates tuples in memory up to a bound. When the bound would
// be exceeded it sorts them and merges them with its single run file on disk,
// so memory stays bounded regardless of input size:
//
//	st, err := sortmerge.New(session, sortmerge.DefaultMaxInMemory)
//	if err != nil {
//	    return err
//	}
//	defer st.Dispose()
//
//	for _, f := range features {
//	    if err := st.Add(sortmerge.Tuple{f.Layer, f.ID, f}); err != nil {
//	        return err
//	    }
//	}
//	it, err := st.Iterator()
//	...
//
// Tuples are persisted with the codec package; the session registry must
// contain [Registry] and the registries of any record elements.
package sortmerge
