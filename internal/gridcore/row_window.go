package gridcore

import (
	"context"

	"tably/internal/baserpc"
)

// windowData is the cache payload for one row query key: the fetched pages
// in fetch order plus the continuation cursor ("" when exhausted).
type windowData struct {
	pages      [][]baserpc.Row
	nextCursor string
}

func (d *windowData) clone() *windowData {
	out := &windowData{nextCursor: d.nextCursor, pages: make([][]baserpc.Row, len(d.pages))}
	copy(out.pages, d.pages)
	return out
}

// RowWindow exposes the ordered, deduplicated merged row sequence for one
// (table, sort, filter) query key with incremental forward loading. Ordering
// is entirely a property of the fetched page sequence; nothing is re-sorted
// here.
type RowWindow struct {
	cache  *Cache
	client baserpc.Client
	key    QueryKey
	keyStr string
}

func NewRowWindow(cache *Cache, client baserpc.Client, key QueryKey) *RowWindow {
	if key.Limit == 0 {
		key.Limit = PageSize
	}
	return &RowWindow{cache: cache, client: client, key: key, keyStr: key.String()}
}

func (w *RowWindow) Key() QueryKey { return w.key }

func (w *RowWindow) data() *windowData {
	d, _ := w.cache.Lookup(w.keyStr).Data.(*windowData)
	return d
}

// Rows returns the merged sequence: pages concatenated in fetch order,
// deduplicated by row id keeping the first occurrence. Dedup guards against
// overlapping pages caused by concurrent inserts or sort changes.
func (w *RowWindow) Rows() []baserpc.Row {
	d := w.data()
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []baserpc.Row
	for _, page := range d.pages {
		for _, r := range page {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}

// LoadedCount is the length of the merged sequence.
func (w *RowWindow) LoadedCount() int {
	return len(w.Rows())
}

// HasMore reports whether the server holds rows beyond the loaded window.
func (w *RowWindow) HasMore() bool {
	d := w.data()
	return d != nil && d.nextCursor != ""
}

// Err returns the page-unavailable error when the window has no data and the
// last fetch failed.
func (w *RowWindow) Err() error {
	res := w.cache.Lookup(w.keyStr)
	if res.State == StateError {
		return res.Err
	}
	return nil
}

// Loading reports whether a fetch is in flight with nothing loaded yet.
func (w *RowWindow) Loading() bool {
	return w.cache.Lookup(w.keyStr).State == StatePending
}

// Ensure starts the first page fetch if the window is untouched or was
// invalidated. Safe to call every render.
func (w *RowWindow) Ensure() {
	res := w.cache.Lookup(w.keyStr)
	if res.State == StateIdle || res.State == StateError || res.Stale {
		w.fetchPage("", nil)
	}
}

// Retry reloads the window after a fetch failure.
func (w *RowWindow) Retry() {
	w.fetchPage("", nil)
}

// MaybeFetchMore requests the next page when the last rendered virtual index
// has reached the end of the loaded sequence, a cursor remains, and no fetch
// is in flight. The in-flight guard lives in the cache, so rapid renders
// trigger at most one fetch per page.
func (w *RowWindow) MaybeFetchMore(lastRenderedIndex int) {
	res := w.cache.Lookup(w.keyStr)
	d, _ := res.Data.(*windowData)
	if d == nil || d.nextCursor == "" || res.Fetching {
		return
	}
	if lastRenderedIndex+1 < w.LoadedCount() {
		return
	}
	w.fetchPage(d.nextCursor, d)
}

// fetchPage loads one page. prev carries the pages the new one extends; nil
// restarts the window from the first page. An optimistic SetData while the
// fetch is in flight supersedes it, so merging against the snapshot taken
// here cannot lose a newer write.
func (w *RowWindow) fetchPage(cursor string, prev *windowData) {
	w.cache.Fetch(w.keyStr, func(ctx context.Context) (any, error) {
		resp, err := w.client.GetRows(ctx, baserpc.GetRowsRequest{
			TableID: w.key.TableID,
			Limit:   w.key.Limit,
			Sort:    w.key.Sort,
			Filter:  w.key.Filter,
			Cursor:  cursor,
		})
		if err != nil {
			return nil, err
		}
		next := &windowData{nextCursor: resp.NextCursor}
		if prev != nil {
			next.pages = append(next.pages, prev.pages...)
		}
		next.pages = append(next.pages, resp.Rows)
		return next, nil
	})
}

// OptimisticInsert splices a placeholder row into the window before the
// server confirms it. Filtered views skip the splice (the synthetic row's
// position is unpredictable) and wait for refetch. Under a descending
// primary sort the empty row belongs at the tail; ascending puts it at the
// head (empty values order first); unsorted appends in insertion order.
// The returned revert removes the row again; ok is false when no splice
// happened and the caller should rely on invalidation instead.
func (w *RowWindow) OptimisticInsert(row baserpc.Row) (revert func(), ok bool) {
	if w.key.Filter != nil {
		return nil, false
	}
	if w.data() == nil {
		return nil, false
	}
	head := len(w.key.Sort) > 0 && w.key.Sort[0].Direction == baserpc.SortAsc

	w.cache.SetData(w.keyStr, func(prevAny any) any {
		d, _ := prevAny.(*windowData)
		if d == nil {
			return prevAny
		}
		next := d.clone()
		if len(next.pages) == 0 {
			next.pages = [][]baserpc.Row{{row}}
			return next
		}
		if head {
			first := next.pages[0]
			next.pages[0] = append([]baserpc.Row{row}, first...)
		} else {
			last := len(next.pages) - 1
			next.pages[last] = append(append([]baserpc.Row(nil), next.pages[last]...), row)
		}
		return next
	})

	revert = func() {
		w.cache.SetData(w.keyStr, func(prevAny any) any {
			d, _ := prevAny.(*windowData)
			if d == nil {
				return prevAny
			}
			next := d.clone()
			for i, page := range next.pages {
				for j, r := range page {
					if r.ID == row.ID {
						trimmed := append(append([]baserpc.Row(nil), page[:j]...), page[j+1:]...)
						next.pages[i] = trimmed
						return next
					}
				}
			}
			return next
		})
	}
	return revert, true
}

// UpdateCellLocal rewrites one cell in the cached window and returns a
// revert to the previous value. ok is false when the row is not loaded.
func (w *RowWindow) UpdateCellLocal(rowID, columnID, value string) (revert func(), ok bool) {
	var prevValue string
	var found bool
	w.cache.SetData(w.keyStr, func(prevAny any) any {
		d, _ := prevAny.(*windowData)
		if d == nil {
			return prevAny
		}
		next := d.clone()
		for i, page := range d.pages {
			for j, r := range page {
				if r.ID != rowID {
					continue
				}
				found = true
				prevValue = r.Cell(columnID)
				cells := make(map[string]string, len(r.Cells)+1)
				for k, v := range r.Cells {
					cells[k] = v
				}
				cells[columnID] = value
				pageCopy := append([]baserpc.Row(nil), page...)
				pageCopy[j] = baserpc.Row{ID: r.ID, Cells: cells}
				next.pages[i] = pageCopy
				return next
			}
		}
		return next
	})
	if !found {
		return nil, false
	}
	revert = func() {
		w.UpdateCellLocal(rowID, columnID, prevValue)
	}
	return revert, true
}

// RemoveRowLocal drops a row from the window (optimistic delete) and
// returns a revert that restores the previous window contents.
func (w *RowWindow) RemoveRowLocal(rowID string) (revert func()) {
	snapshot := w.cache.SetData(w.keyStr, func(prevAny any) any {
		d, _ := prevAny.(*windowData)
		if d == nil {
			return prevAny
		}
		next := d.clone()
		for i, page := range next.pages {
			for j, r := range page {
				if r.ID == rowID {
					next.pages[i] = append(append([]baserpc.Row(nil), page[:j]...), page[j+1:]...)
					return next
				}
			}
		}
		return next
	})
	return func() {
		w.cache.Restore(w.keyStr, snapshot)
	}
}

// Invalidate marks the window for refetch (bulk adds, sort-affecting edits).
func (w *RowWindow) Invalidate() {
	w.cache.Invalidate(w.keyStr)
}
