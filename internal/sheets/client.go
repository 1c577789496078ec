// Package sheets is the thin adapter over the remote spreadsheet API. Every
// call is one HTTP round trip against a single named worksheet; no two calls
// are atomic together and the API is both slow and rate limited, which is
// why everything above this package reads through a cache.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rentabill/internal/models"
)

// Row is one data row of a worksheet. Num is the 1-based spreadsheet row
// number (data starts at row 2, below the header), kept so mutators can
// address cells of the row they are patching.
type Row struct {
	Num   int
	Cells map[string]string
}

// RangeUpdate is a single range write inside a batch update.
type RangeUpdate struct {
	Range  string
	Values [][]any
}

// Client is the narrow surface the repositories consume. The HTTP
// implementation below talks to the real store; tests substitute an
// in-memory fake.
type Client interface {
	GetAllRecords(ctx context.Context, sheet string) ([]Row, error)
	AppendRow(ctx context.Context, sheet string, values []any) error
	UpdateRange(ctx context.Context, sheet, a1Range string, values [][]any) error
	BatchUpdate(ctx context.Context, sheet string, updates []RangeUpdate) error
}

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a spreadsheet API client. baseURL addresses one
// spreadsheet; the timeout is the only deadline this layer enforces.
func NewClient(baseURL, token string, timeout time.Duration) Client {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *apiClient) makeRequest(ctx context.Context, method, endpoint string, payload any) (*http.Response, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransient, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: store rate limit exceeded (429)", models.ErrTransient)
		}
		return nil, fmt.Errorf("%w: store returned status %d: %s", models.ErrTransient, resp.StatusCode, string(respBody))
	}

	return resp, nil
}

// GetAllRecords fetches a worksheet and maps each data row onto its header.
// Short rows are padded with blanks; extra header cells of a row stay empty.
func (c *apiClient) GetAllRecords(ctx context.Context, sheet string) ([]Row, error) {
	endpoint := fmt.Sprintf("/values/%s", url.PathEscape(sheet))

	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode worksheet %s: %v", models.ErrTransient, sheet, err)
	}

	if len(payload.Values) == 0 {
		return nil, nil
	}

	header := make([]string, len(payload.Values[0]))
	for i, cell := range payload.Values[0] {
		header[i] = cellString(cell)
	}

	rows := make([]Row, 0, len(payload.Values)-1)
	for i, raw := range payload.Values[1:] {
		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(raw) {
				cells[name] = cellString(raw[j])
			} else {
				cells[name] = ""
			}
		}
		rows = append(rows, Row{Num: i + 2, Cells: cells})
	}
	return rows, nil
}

// AppendRow appends one row of literal values below the last data row.
// Formula-owned columns are left to the store and must not be included.
func (c *apiClient) AppendRow(ctx context.Context, sheet string, values []any) error {
	endpoint := fmt.Sprintf("/values/%s:append?valueInputOption=RAW", url.PathEscape(sheet))

	payload := map[string]any{
		"values": [][]any{values},
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// UpdateRange overwrites one A1 range ("L5:M5") with literal values.
func (c *apiClient) UpdateRange(ctx context.Context, sheet, a1Range string, values [][]any) error {
	endpoint := fmt.Sprintf("/values/%s?valueInputOption=RAW",
		url.PathEscape(fmt.Sprintf("%s!%s", sheet, a1Range)))

	payload := map[string]any{
		"values": values,
	}

	resp, err := c.makeRequest(ctx, http.MethodPut, endpoint, payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// BatchUpdate patches several ranges of one worksheet in a single round
// trip. The payment transaction uses this to stamp every meter of a premise
// at once, keeping the partial-failure surface to one call.
func (c *apiClient) BatchUpdate(ctx context.Context, sheet string, updates []RangeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		data = append(data, map[string]any{
			"range":  fmt.Sprintf("%s!%s", sheet, u.Range),
			"values": u.Values,
		})
	}
	payload := map[string]any{
		"valueInputOption": "RAW",
		"data":             data,
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/values:batchUpdate", payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// cellString renders a decoded JSON cell as the string form the coercion
// layer expects.
func cellString(v any) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case float64:
		return strconv.FormatFloat(cell, 'f', -1, 64)
	case bool:
		if cell {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", cell)
	}
}
