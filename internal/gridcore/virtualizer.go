package gridcore

// VirtualItem is one renderable slot: its item index, its start offset
// within the total extent, and its size. Offsets and sizes are in terminal
// cells on whichever axis the virtualizer serves.
type VirtualItem struct {
	Index int
	Start int
	Size  int
}

// Virtualizer maps a scroll offset and viewport size to the minimal index
// range to render, one axis at a time. Rows and columns each get their own
// instance. A prefix-sum offset cache avoids re-walking the size function on
// every scroll; it is invalidated whenever count or any size changes.
type Virtualizer struct {
	count    int
	size     func(index int) int
	overscan int

	offsets []int // offsets[i] = start of item i; len = count+1, last = total
	dirty   bool
}

func NewVirtualizer(count int, size func(index int) int, overscan int) *Virtualizer {
	return &Virtualizer{count: count, size: size, overscan: overscan, dirty: true}
}

// SetCount updates the item count and invalidates cached offsets.
func (v *Virtualizer) SetCount(count int) {
	if count != v.count {
		v.count = count
		v.dirty = true
	}
}

func (v *Virtualizer) Count() int { return v.count }

// InvalidateSizes discards the offset cache. Call after any size the size
// function reports may have changed (column resize).
func (v *Virtualizer) InvalidateSizes() {
	v.dirty = true
}

func (v *Virtualizer) measure() {
	if !v.dirty && len(v.offsets) == v.count+1 {
		return
	}
	v.offsets = make([]int, v.count+1)
	total := 0
	for i := 0; i < v.count; i++ {
		v.offsets[i] = total
		total += v.size(i)
	}
	v.offsets[v.count] = total
	v.dirty = false
}

// TotalSize is the full scroll extent.
func (v *Virtualizer) TotalSize() int {
	v.measure()
	return v.offsets[v.count]
}

// Start returns the cached start offset of an item.
func (v *Virtualizer) Start(index int) int {
	v.measure()
	if index < 0 {
		return 0
	}
	if index > v.count {
		index = v.count
	}
	return v.offsets[index]
}

// Range returns the items overlapping [scroll, scroll+viewport), widened by
// the overscan count on both sides and clamped to the item range.
func (v *Virtualizer) Range(scroll, viewport int) []VirtualItem {
	v.measure()
	if v.count == 0 || viewport <= 0 {
		return nil
	}
	if scroll < 0 {
		scroll = 0
	}

	first := v.indexAt(scroll)
	last := v.indexAt(scroll + viewport - 1)

	first -= v.overscan
	last += v.overscan
	if first < 0 {
		first = 0
	}
	if last > v.count-1 {
		last = v.count - 1
	}

	out := make([]VirtualItem, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, VirtualItem{Index: i, Start: v.offsets[i], Size: v.offsets[i+1] - v.offsets[i]})
	}
	return out
}

// indexAt finds the item containing an offset by binary search over the
// prefix sums.
func (v *Virtualizer) indexAt(offset int) int {
	lo, hi := 0, v.count-1
	for lo < hi {
		mid := (lo + hi) / 2
		if v.offsets[mid+1] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ClampScroll bounds a scroll offset so the viewport never runs past the
// extent.
func (v *Virtualizer) ClampScroll(scroll, viewport int) int {
	max := v.TotalSize() - viewport
	if max < 0 {
		max = 0
	}
	if scroll > max {
		scroll = max
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// PinnedRange computes the virtual slice for the scrollable columns when the
// first column is pinned. The pinned column is excluded from the window and
// the caller renders it at a fixed left offset; Lead and Trail are the
// padding widths before and after the returned slice that keep the slice
// aligned with the true scroll position.
func PinnedRange(v *Virtualizer, scroll, viewport int) (items []VirtualItem, lead, trail int) {
	items = v.Range(scroll, viewport)
	if len(items) == 0 {
		return nil, 0, v.TotalSize()
	}
	lead = items[0].Start
	end := items[len(items)-1].Start + items[len(items)-1].Size
	trail = v.TotalSize() - end
	return items, lead, trail
}
