package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// ForkJoin runs fn for every index in [0, items), recursively bisecting the
// range into leaves of at most leafSize indexes and executing the leaves on
// a pool of at most workers goroutines. setup runs once per leaf; its result
// is handed to every fn call in that leaf, so expensive scratch state is
// allocated once per leaf and reused across the leaf's indexes rather than
// shared between goroutines.
//
// ForkJoin is synchronous: it returns only after every scheduled leaf has
// finished. The first error returned by setup or fn, or the first recovered
// panic, cancels the remaining work and becomes the return value; partial
// results written by other leaves before the cancellation must not be
// trusted. Because fn receives explicit indexes, callers address disjoint
// output slots directly and need no locking of their own.
//
// workers <= 0 selects GOMAXPROCS workers, leafSize <= 0 an automatic leaf
// size.
func ForkJoin(items, leafSize, workers int, setup func() (interface{}, error), fn func(state interface{}, index int) error) error {
	if items <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if leafSize <= 0 {
		// a few leaves per worker keeps the pool busy without
		// re-running setup for every handful of indexes
		leafSize = (items + 4*workers - 1) / (4 * workers)
	}

	var leaves [][2]int
	var bisect func(first, last int)
	bisect = func(first, last int) {
		if last-first <= leafSize {
			leaves = append(leaves, [2]int{first, last})
			return
		}
		mid := first + (last-first)/2
		bisect(first, mid)
		bisect(mid, last)
	}
	bisect(0, items)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for _, leaf := range leaves {
		first, last := leaf[0], leaf[1]
		g.Go(func() (err error) {
			defer errors.Recover(&err, "parallel.ForkJoin leaf")
			state, err := setup()
			if err != nil {
				return err
			}
			for i := first; i < last; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := fn(state, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
