package gridcore

import (
	"context"
	"strconv"
	"testing"

	"tably/internal/baserpc"
)

type countingClient struct {
	baserpc.Client
	getRows int
}

func (c *countingClient) GetRows(ctx context.Context, req baserpc.GetRowsRequest) (*baserpc.GetRowsResponse, error) {
	c.getRows++
	return c.Client.GetRows(ctx, req)
}

// newTestTable seeds a MemoryClient with one table holding rowCount rows in
// a single text column, values "v0".."vN" in insertion order.
func newTestTable(t *testing.T, rowCount int) (mc *baserpc.MemoryClient, tableID string, col baserpc.Column) {
	t.Helper()
	ctx := context.Background()
	mc = baserpc.NewMemoryClient()
	base, err := mc.CreateBase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	table, err := mc.AddTable(ctx, base.ID)
	if err != nil {
		t.Fatal(err)
	}
	created, err := mc.AddColumn(ctx, baserpc.AddColumnRequest{TableID: table.ID, Name: "Name", Type: baserpc.FieldText})
	if err != nil {
		t.Fatal(err)
	}
	if rowCount > 0 {
		if err := mc.AddRows(ctx, baserpc.AddRowsRequest{TableID: table.ID, Count: rowCount}); err != nil {
			t.Fatal(err)
		}
		resp, err := mc.GetRows(ctx, baserpc.GetRowsRequest{TableID: table.ID, Limit: rowCount})
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range resp.Rows {
			err := mc.UpdateCell(ctx, baserpc.UpdateCellRequest{RowID: r.ID, ColumnID: created.ID, Value: "v" + strconv.Itoa(i)})
			if err != nil {
				t.Fatal(err)
			}
		}
	}
	return mc, table.ID, *created
}

func TestRowWindowDedupKeepsFirstOccurrence(t *testing.T) {
	cache := NewCache(nil)
	w := NewRowWindow(cache, baserpc.NewMemoryClient(), QueryKey{TableID: "t", Limit: 2})

	row := func(id, v string) baserpc.Row {
		return baserpc.Row{ID: id, Cells: map[string]string{"c": v}}
	}
	// Overlapping pages, as produced by a refetch racing an insert.
	cache.SetData(w.Key().String(), func(any) any {
		return &windowData{pages: [][]baserpc.Row{
			{row("a", "first"), row("b", "1")},
			{row("b", "2"), row("c", "1")},
			{row("a", "late"), row("d", "1")},
		}}
	})

	rows := w.Rows()
	gotIDs := make([]string, len(rows))
	for i, r := range rows {
		gotIDs[i] = r.ID
	}
	wantIDs := []string{"a", "b", "c", "d"}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("merged ids = %v, want %v", gotIDs, wantIDs)
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("merged ids = %v, want %v", gotIDs, wantIDs)
		}
	}
	// First occurrence wins.
	if rows[0].Cell("c") != "first" {
		t.Errorf("row a value = %q, want %q", rows[0].Cell("c"), "first")
	}
}

func TestRowWindowPaginationTriggersExactlyOnce(t *testing.T) {
	mc, tableID, _ := newTestTable(t, 120)
	client := &countingClient{Client: mc}
	cache := NewCache(nil)
	w := NewRowWindow(cache, client, QueryKey{TableID: tableID, Limit: PageSize})

	w.Ensure()
	if got := w.LoadedCount(); got != 50 {
		t.Fatalf("loaded after first page = %d, want 50", got)
	}
	if !w.HasMore() {
		t.Fatal("HasMore() = false after first page, want true")
	}
	if client.getRows != 1 {
		t.Fatalf("fetches after Ensure = %d, want 1", client.getRows)
	}

	// The 50th loaded row (index 49) becomes the last rendered item.
	w.MaybeFetchMore(49)
	if client.getRows != 2 {
		t.Fatalf("fetches after trigger = %d, want 2", client.getRows)
	}
	if got := w.LoadedCount(); got != 100 {
		t.Fatalf("loaded after second page = %d, want 100", got)
	}

	// Re-rendering the same position must not fetch again.
	w.MaybeFetchMore(49)
	if client.getRows != 2 {
		t.Fatalf("fetches after redundant trigger = %d, want 2", client.getRows)
	}

	w.MaybeFetchMore(99)
	if got := w.LoadedCount(); got != 120 {
		t.Fatalf("loaded after final page = %d, want 120", got)
	}
	if w.HasMore() {
		t.Error("HasMore() = true after final page, want false")
	}
	w.MaybeFetchMore(119)
	if client.getRows != 3 {
		t.Errorf("fetches after exhaustion = %d, want 3", client.getRows)
	}
}

func TestRowWindowOptimisticInsert(t *testing.T) {
	mc, tableID, col := newTestTable(t, 3)

	t.Run("unsorted appends at tail", func(t *testing.T) {
		cache := NewCache(nil)
		w := NewRowWindow(cache, mc, QueryKey{TableID: tableID, Limit: PageSize})
		w.Ensure()

		row := baserpc.Row{ID: "new-row", Cells: map[string]string{}}
		revert, ok := w.OptimisticInsert(row)
		if !ok {
			t.Fatal("OptimisticInsert ok = false, want true")
		}
		rows := w.Rows()
		if rows[len(rows)-1].ID != "new-row" {
			t.Fatalf("last row id = %q, want new-row", rows[len(rows)-1].ID)
		}

		revert()
		for _, r := range w.Rows() {
			if r.ID == "new-row" {
				t.Fatal("reverted row still present")
			}
		}
	})

	t.Run("ascending sort splices at head", func(t *testing.T) {
		cache := NewCache(nil)
		sort := baserpc.SortConfig{{ColumnID: col.ID, Direction: baserpc.SortAsc}}
		w := NewRowWindow(cache, mc, QueryKey{TableID: tableID, Limit: PageSize, Sort: sort})
		w.Ensure()

		_, ok := w.OptimisticInsert(baserpc.Row{ID: "new-row", Cells: map[string]string{}})
		if !ok {
			t.Fatal("OptimisticInsert ok = false, want true")
		}
		if got := w.Rows()[0].ID; got != "new-row" {
			t.Fatalf("first row id = %q, want new-row", got)
		}
	})

	t.Run("filtered view skips the splice", func(t *testing.T) {
		cache := NewCache(nil)
		filter := &baserpc.Filter{
			Connector: baserpc.ConnectorAnd,
			Items: []baserpc.FilterItem{{Condition: &baserpc.Condition{
				ColumnID: col.ID, Operator: baserpc.OpContains, Value: "v",
			}}},
		}
		w := NewRowWindow(cache, mc, QueryKey{TableID: tableID, Limit: PageSize, Filter: filter})
		w.Ensure()

		if _, ok := w.OptimisticInsert(baserpc.Row{ID: "new-row"}); ok {
			t.Error("OptimisticInsert ok = true on filtered view, want false")
		}
	})
}
