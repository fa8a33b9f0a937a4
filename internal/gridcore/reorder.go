package gridcore

// DragReorder is the state of one active row-drag gesture inside a vertical
// list (sort entries, filter conditions). It converts pointer positions into
// candidate indices and reports splices only when the candidate actually
// changes, so the caller's live preview never reflows redundantly.
//
// One gesture of this kind is active at a time; the caller installs it on
// grab and drops it on release.
type DragReorder struct {
	listTop   int // top offset of the list's first row
	rowStride int // distance between consecutive row tops
	rowHeight int
	count     int

	startIndex    int
	index         int // current index of the dragged item in the preview
	pointerOffset int // pointer position minus dragged row top, fixed at grab
}

// StartDragReorder begins a gesture over a count-row list with the item at
// index grabbed at pointer position pointer (same axis and units as
// listTop).
func StartDragReorder(listTop, rowStride, rowHeight, count, index, pointer int) *DragReorder {
	return &DragReorder{
		listTop:       listTop,
		rowStride:     rowStride,
		rowHeight:     rowHeight,
		count:         count,
		startIndex:    index,
		index:         index,
		pointerOffset: pointer - (listTop + index*rowStride),
	}
}

// Update advances the gesture to a new pointer position. When the candidate
// index differs from the current one it returns the splice to apply to the
// preview list; moved is false when nothing changed.
func (d *DragReorder) Update(pointer int) (from, to int, moved bool) {
	if d.count < 2 {
		return 0, 0, false
	}
	top := pointer - d.pointerOffset
	minTop := d.listTop
	maxTop := d.listTop + (d.count-1)*d.rowStride
	if top < minTop {
		top = minTop
	}
	if top > maxTop {
		top = maxTop
	}

	candidate := (top - d.listTop + d.rowHeight/2) / d.rowStride
	if candidate > d.count-1 {
		candidate = d.count - 1
	}
	if candidate == d.index {
		return 0, 0, false
	}
	from, to = d.index, candidate
	d.index = candidate
	return from, to, true
}

// Index is the dragged item's current position in the preview list.
func (d *DragReorder) Index() int { return d.index }

// Changed reports whether release should commit anything: an order equal to
// the one the gesture started from issues no mutation.
func (d *DragReorder) Changed() bool { return d.index != d.startIndex }

// Splice moves the element at from to position to, shifting the elements in
// between. Returns a new slice; the input is not modified.
func Splice[T any](list []T, from, to int) []T {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) || from == to {
		return append([]T(nil), list...)
	}
	out := make([]T, 0, len(list))
	out = append(out, list...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}
