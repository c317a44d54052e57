package raptor

// SliceIterator walks a slice forward or backward without copying it.
// The route scanner uses the forward direction to walk a route's stop
// sequence from the boarding candidate onward; journey reconstruction
// uses the reverse direction to emit a backward-built leg list in
// chronological order.
type SliceIterator[T any] struct {
	data    []T
	index   int
	reverse bool
}

func NewSliceIterator[T any](data []T, reverse bool) *SliceIterator[T] {
	it := &SliceIterator[T]{data: data, reverse: reverse}
	if reverse {
		it.index = len(data) - 1
	}
	return it
}

func (it *SliceIterator[T]) HasNext() bool {
	if it.reverse {
		return it.index >= 0
	}
	return it.index < len(it.data)
}

// Next returns the next element and advances the iterator. Must be
// pre-guarded by HasNext.
func (it *SliceIterator[T]) Next() T {
	if !it.HasNext() {
		panic("Next always has to be pre-guarded by HasNext")
	}

	val := it.data[it.index]

	if it.reverse {
		it.index--
	} else {
		it.index++
	}

	return val
}
