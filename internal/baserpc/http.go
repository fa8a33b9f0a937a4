package baserpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient talks to the base service over JSON POSTs to
// {server}/api/{procedure}. The wire format is owned by the service; this
// client only consumes it.
type HTTPClient struct {
	server string
	token  string
	http   *http.Client
}

func NewHTTPClient(server, token string) *HTTPClient {
	return &HTTPClient{
		server: strings.TrimRight(server, "/"),
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// rpcError is the service's error envelope.
type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) call(ctx context.Context, procedure string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", procedure, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/api/"+procedure, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", procedure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", procedure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", procedure, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		var rpcErr rpcError
		if err := json.NewDecoder(resp.Body).Decode(&rpcErr); err == nil && rpcErr.Message != "" {
			return fmt.Errorf("%s: %s", procedure, rpcErr.Message)
		}
		return fmt.Errorf("%s: unexpected status %d", procedure, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", procedure, err)
	}
	return nil
}

func (c *HTTPClient) ListBases(ctx context.Context) ([]Base, error) {
	var out []Base
	if err := c.call(ctx, "base.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateBase(ctx context.Context) (*Base, error) {
	var out Base
	if err := c.call(ctx, "base.create", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RenameBase(ctx context.Context, baseID, name string) error {
	in := struct {
		BaseID string `json:"baseId"`
		Name   string `json:"name"`
	}{baseID, name}
	return c.call(ctx, "base.rename", in, nil)
}

func (c *HTTPClient) DeleteBase(ctx context.Context, baseID string) error {
	in := struct {
		BaseID string `json:"baseId"`
	}{baseID}
	return c.call(ctx, "base.delete", in, nil)
}

func (c *HTTPClient) TouchBase(ctx context.Context, baseID string) error {
	in := struct {
		BaseID string `json:"baseId"`
	}{baseID}
	return c.call(ctx, "base.touch", in, nil)
}

func (c *HTTPClient) GetBase(ctx context.Context, baseID string) (*BaseDetail, error) {
	in := struct {
		BaseID string `json:"baseId"`
	}{baseID}
	var out BaseDetail
	if err := c.call(ctx, "base.get", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AddTable(ctx context.Context, baseID string) (*Table, error) {
	in := struct {
		BaseID string `json:"baseId"`
	}{baseID}
	var out Table
	if err := c.call(ctx, "base.addTable", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteTable(ctx context.Context, tableID string) error {
	in := struct {
		TableID string `json:"tableId"`
	}{tableID}
	return c.call(ctx, "base.deleteTable", in, nil)
}

func (c *HTTPClient) GetTableMeta(ctx context.Context, tableID string) (*TableMeta, error) {
	in := struct {
		TableID string `json:"tableId"`
	}{tableID}
	var out TableMeta
	if err := c.call(ctx, "base.getTableMeta", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AddColumn(ctx context.Context, req AddColumnRequest) (*Column, error) {
	var out Column
	if err := c.call(ctx, "base.addColumn", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteColumn(ctx context.Context, columnID string) error {
	in := struct {
		ColumnID string `json:"columnId"`
	}{columnID}
	return c.call(ctx, "base.deleteColumn", in, nil)
}

func (c *HTTPClient) GetRows(ctx context.Context, req GetRowsRequest) (*GetRowsResponse, error) {
	var out GetRowsResponse
	if err := c.call(ctx, "base.getRows", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AddRows(ctx context.Context, req AddRowsRequest) error {
	return c.call(ctx, "base.addRows", req, nil)
}

func (c *HTTPClient) DeleteRow(ctx context.Context, rowID string) error {
	in := struct {
		RowID string `json:"rowId"`
	}{rowID}
	return c.call(ctx, "base.deleteRow", in, nil)
}

func (c *HTTPClient) UpdateCell(ctx context.Context, req UpdateCellRequest) error {
	return c.call(ctx, "base.updateCell", req, nil)
}

func (c *HTTPClient) SetTableSort(ctx context.Context, req SetTableSortRequest) error {
	return c.call(ctx, "base.setTableSort", req, nil)
}

func (c *HTTPClient) WhoAmI(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, "auth.whoami", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	return c.call(ctx, "auth.signout", nil, nil)
}
