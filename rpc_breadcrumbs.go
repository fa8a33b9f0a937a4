package main

import (
	"context"

	"tably/internal/baserpc"
)

// recordingClient wraps a baserpc.Client and leaves a breadcrumb for every
// call, so error reports show which service operations led up to a failure.
type recordingClient struct {
	inner baserpc.Client
}

func withBreadcrumbs(inner baserpc.Client) baserpc.Client {
	return &recordingClient{inner: inner}
}

func (c *recordingClient) record(procedure string) {
	if breadcrumbs != nil {
		breadcrumbs.RecordRPC(procedure)
	}
}

func (c *recordingClient) ListBases(ctx context.Context) ([]baserpc.Base, error) {
	c.record("ListBases")
	return c.inner.ListBases(ctx)
}

func (c *recordingClient) CreateBase(ctx context.Context) (*baserpc.Base, error) {
	c.record("CreateBase")
	return c.inner.CreateBase(ctx)
}

func (c *recordingClient) RenameBase(ctx context.Context, baseID, name string) error {
	c.record("RenameBase")
	return c.inner.RenameBase(ctx, baseID, name)
}

func (c *recordingClient) DeleteBase(ctx context.Context, baseID string) error {
	c.record("DeleteBase")
	return c.inner.DeleteBase(ctx, baseID)
}

func (c *recordingClient) TouchBase(ctx context.Context, baseID string) error {
	c.record("TouchBase")
	return c.inner.TouchBase(ctx, baseID)
}

func (c *recordingClient) GetBase(ctx context.Context, baseID string) (*baserpc.BaseDetail, error) {
	c.record("GetBase")
	return c.inner.GetBase(ctx, baseID)
}

func (c *recordingClient) AddTable(ctx context.Context, baseID string) (*baserpc.Table, error) {
	c.record("AddTable")
	return c.inner.AddTable(ctx, baseID)
}

func (c *recordingClient) DeleteTable(ctx context.Context, tableID string) error {
	c.record("DeleteTable")
	return c.inner.DeleteTable(ctx, tableID)
}

func (c *recordingClient) GetTableMeta(ctx context.Context, tableID string) (*baserpc.TableMeta, error) {
	c.record("GetTableMeta")
	return c.inner.GetTableMeta(ctx, tableID)
}

func (c *recordingClient) AddColumn(ctx context.Context, req baserpc.AddColumnRequest) (*baserpc.Column, error) {
	c.record("AddColumn")
	return c.inner.AddColumn(ctx, req)
}

func (c *recordingClient) DeleteColumn(ctx context.Context, columnID string) error {
	c.record("DeleteColumn")
	return c.inner.DeleteColumn(ctx, columnID)
}

func (c *recordingClient) GetRows(ctx context.Context, req baserpc.GetRowsRequest) (*baserpc.GetRowsResponse, error) {
	c.record("GetRows")
	return c.inner.GetRows(ctx, req)
}

func (c *recordingClient) AddRows(ctx context.Context, req baserpc.AddRowsRequest) error {
	c.record("AddRows")
	return c.inner.AddRows(ctx, req)
}

func (c *recordingClient) DeleteRow(ctx context.Context, rowID string) error {
	c.record("DeleteRow")
	return c.inner.DeleteRow(ctx, rowID)
}

func (c *recordingClient) UpdateCell(ctx context.Context, req baserpc.UpdateCellRequest) error {
	c.record("UpdateCell")
	return c.inner.UpdateCell(ctx, req)
}

func (c *recordingClient) SetTableSort(ctx context.Context, req baserpc.SetTableSortRequest) error {
	c.record("SetTableSort")
	return c.inner.SetTableSort(ctx, req)
}

func (c *recordingClient) WhoAmI(ctx context.Context) (*baserpc.User, error) {
	c.record("WhoAmI")
	return c.inner.WhoAmI(ctx)
}

func (c *recordingClient) SignOut(ctx context.Context) error {
	c.record("SignOut")
	return c.inner.SignOut(ctx)
}
