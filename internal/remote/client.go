// Package remote is the HTTP client for the crawler service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 15 * time.Second

// maxDetailLen caps the width of error bodies surfaced to the operator.
const maxDetailLen = 200

// Client talks to the crawler service REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the service rooted at baseURL
// (for example http://localhost:8001/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchRecords returns the current crawled records.
func (c *Client) FetchRecords(ctx context.Context) ([]models.Record, error) {
	body, _, err := c.do(ctx, "fetch records", http.MethodGet, "/crawler/data", nil, false)
	if err != nil {
		return nil, err
	}
	return decodeRecords("fetch records", body)
}

// FetchAccounts returns all crawler accounts.
func (c *Client) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.getJSON(ctx, "fetch accounts", "/accounts", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Account{}
	}
	return out, nil
}

// FetchCrawlerStatus returns the general crawler summary.
func (c *Client) FetchCrawlerStatus(ctx context.Context) (models.CrawlerStatus, error) {
	var out models.CrawlerStatus
	err := c.getJSON(ctx, "fetch crawler status", "/crawler/status", &out)
	return out, err
}

// FetchAutomationStatus returns the auto-crawl summary.
func (c *Client) FetchAutomationStatus(ctx context.Context) (models.AutomationStatus, error) {
	var out models.AutomationStatus
	err := c.getJSON(ctx, "fetch automation status", "/crawler/auto/status", &out)
	return out, err
}

// FetchVersion returns the service build information.
func (c *Client) FetchVersion(ctx context.Context) (models.VersionInfo, error) {
	var out models.VersionInfo
	err := c.getJSON(ctx, "fetch version", "/version", &out)
	return out, err
}

// FetchStatistics returns aggregate statistics.
func (c *Client) FetchStatistics(ctx context.Context) (models.Statistics, error) {
	var out models.Statistics
	err := c.getJSON(ctx, "fetch statistics", "/crawler/stats", &out)
	return out, err
}

// FetchKeywords returns keyword monitor counts.
func (c *Client) FetchKeywords(ctx context.Context) (models.KeywordStats, error) {
	var out models.KeywordStats
	err := c.getJSON(ctx, "fetch keywords", "/crawler/keywords", &out)
	return out, err
}

// FetchHistory returns the crawl attempt log.
func (c *Client) FetchHistory(ctx context.Context) (models.CrawlHistory, error) {
	var out models.CrawlHistory
	err := c.getJSON(ctx, "fetch history", "/crawler/history", &out)
	return out, err
}

// FilterRecords evaluates criteria on the service.
func (c *Client) FilterRecords(ctx context.Context, criteria models.FilterCriteria) ([]models.Record, error) {
	body, _, err := c.do(ctx, "filter records", http.MethodPost, "/crawler/data/filter", criteria, false)
	if err != nil {
		return nil, err
	}
	return decodeRecords("filter records", body)
}

// StartAutomation enables process-wide auto crawling.
func (c *Client) StartAutomation(ctx context.Context) error {
	_, _, err := c.do(ctx, "start automation", http.MethodPost, "/crawler/auto/start", nil, true)
	return err
}

// StopAutomation disables process-wide auto crawling.
func (c *Client) StopAutomation(ctx context.Context) error {
	_, _, err := c.do(ctx, "stop automation", http.MethodPost, "/crawler/auto/stop", nil, true)
	return err
}

// AddAccount registers a new crawler account.
func (c *Client) AddAccount(ctx context.Context, acc models.NewAccount) error {
	_, _, err := c.do(ctx, "add account", http.MethodPost, "/accounts", acc, true)
	return err
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, "delete account", http.MethodDelete, "/accounts/"+url.PathEscape(id), nil, true)
	return err
}

type batchRequest struct {
	Operation  models.BatchOperation `json:"operation"`
	AccountIDs []string              `json:"account_ids"`
}

type batchResponse struct {
	Succeeded *[]string              `json:"succeeded"`
	Failed    *[]models.BatchFailure `json:"failed"`
	Message   string                 `json:"message"`
}

// ReasonNoResult is the failure reason for ids the service did not report on.
const ReasonNoResult = "no result reported"

// BatchOperate applies op to ids. A 2xx response is always a result, even
// when some ids failed.
func (c *Client) BatchOperate(ctx context.Context, ids []string, op models.BatchOperation) (models.BatchResult, error) {
	req := batchRequest{AccountIDs: ids, Operation: op}
	body, _, err := c.do(ctx, "batch "+string(op), http.MethodPost, "/accounts/batch", req, true)
	if err != nil {
		return models.BatchResult{}, err
	}

	var resp batchResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			logger.Warn("unparseable batch response, assuming success", "op", op, "error", err)
		}
	}
	return reconcileBatch(op, ids, resp), nil
}

// reconcileBatch assigns every requested id exactly one outcome.
func reconcileBatch(op models.BatchOperation, ids []string, resp batchResponse) models.BatchResult {
	result := models.BatchResult{Operation: op}
	if resp.Succeeded == nil && resp.Failed == nil {
		result.Succeeded = append([]string(nil), ids...)
		return result
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	seen := make(map[string]bool, len(ids))
	if resp.Failed != nil {
		for _, f := range *resp.Failed {
			if !requested[f.ID] || seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			if f.Reason == "" {
				f.Reason = "failed"
			}
			result.Failed = append(result.Failed, f)
		}
	}
	succeeded := make(map[string]bool)
	if resp.Succeeded != nil {
		for _, id := range *resp.Succeeded {
			if requested[id] && !seen[id] {
				succeeded[id] = true
			}
		}
	}
	// Preserve request order for succeeded ids and unreported ids.
	for _, id := range ids {
		switch {
		case seen[id]:
		case succeeded[id]:
			seen[id] = true
			result.Succeeded = append(result.Succeeded, id)
		default:
			seen[id] = true
			result.Failed = append(result.Failed, models.BatchFailure{ID: id, Reason: ReasonNoResult})
		}
	}
	return result
}

// ResetKeywords zeroes all keyword counters.
func (c *Client) ResetKeywords(ctx context.Context) error {
	_, _, err := c.do(ctx, "reset keywords", http.MethodPost, "/crawler/keywords/reset", nil, true)
	return err
}

// Export is a downloaded CSV export.
type Export struct {
	Filename string
	Data     []byte
}

// ExportData downloads the CSV export. Filename is the server's suggestion
// from Content-Disposition, empty when absent.
func (c *Client) ExportData(ctx context.Context) (Export, error) {
	body, header, err := c.do(ctx, "export data", http.MethodGet, "/crawler/data/export", nil, true)
	if err != nil {
		return Export{}, err
	}
	return Export{Data: body, Filename: dispositionFilename(header.Get("Content-Disposition"))}, nil
}

func dispositionFilename(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	body, _, err := c.do(ctx, op, http.MethodGet, path, nil, false)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Network(op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// do performs one request. Non-2xx responses are classified by apperr.HTTPStatus.
func (c *Client) do(ctx context.Context, op, method, path string, payload any, command bool) ([]byte, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, apperr.Network(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, apperr.Network(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("remote request failed", "op", op, "status", resp.StatusCode, "request_id", reqID)
		return nil, nil, apperr.HTTPStatus(op, resp.StatusCode, detailOf(body), command)
	}
	return body, resp.Header, nil
}

// detailOf extracts a readable reason from an error body: the `detail` or
// `message` field of a JSON object, or the raw text.
func detailOf(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var obj struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		var s string
		if len(obj.Detail) > 0 && json.Unmarshal(obj.Detail, &s) == nil && s != "" {
			return truncate(s)
		}
		if len(obj.Detail) > 0 && !bytes.Equal(obj.Detail, []byte("null")) {
			return truncate(string(obj.Detail))
		}
		if obj.Message != "" {
			return truncate(obj.Message)
		}
	}
	return truncate(string(body))
}

// truncate caps s at maxDetailLen display cells, cutting on a rune boundary.
func truncate(s string) string {
	return ansi.Truncate(s, maxDetailLen, "…")
}

// decodeRecords accepts either a bare array or an object with a data field.
func decodeRecords(op string, body []byte) ([]models.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []models.Record{}, nil
	}

	var records []models.Record
	if body[0] == '[' {
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, apperr.Network(op, fmt.Errorf("failed to parse records: %w", err))
		}
	} else {
		var wrapped struct {
			Data []models.Record `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, apperr.Network(op, fmt.Errorf("failed to parse records: %w", err))
		}
		records = wrapped.Data
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}
