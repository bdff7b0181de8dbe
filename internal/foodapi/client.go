package foodapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	codeOK       = "INFO-000"
	codeNoData   = "INFO-200"
	maxBodyBytes = 1 << 20
)

var _ Lookuper = (*Client)(nil)

// Client calls the barcode service of the food-safety open API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	serviceID  string
	breaker    *gobreaker.CircuitBreaker[*Record]
	logger     *slog.Logger
}

// NewClient creates a Client with a traced HTTP transport and a circuit breaker.
func NewClient(cfg config.FoodAPIConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		serviceID: cfg.ServiceID,
		breaker:   newBreaker(cfg.CircuitBreaker),
		logger:    logger.With("component", "foodapi"),
	}
}

// newBreaker trips on consecutive failures or on the error rate. A missing barcode is a success.
func newBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*Record] {
	st := gobreaker.Settings{
		Name:        "foodapi-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, fridgeerrors.ErrBarcodeNotFound) || errors.Is(err, context.Canceled)
		},
	}
	return gobreaker.NewCircuitBreaker[*Record](st)
}

// Lookup fetches the first record registered for the barcode.
func (c *Client) Lookup(ctx context.Context, barcode string) (*Record, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("empty barcode: %w", fridgeerrors.ErrInvalidIdentifier)
	}
	record, err := c.breaker.Execute(func() (*Record, error) {
		return c.fetch(ctx, barcode)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "Food API circuit open", "barcode", barcode, "state", c.breaker.State().String())
		return nil, fmt.Errorf("%w: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) requestURL(barcode string) string {
	return fmt.Sprintf("%s/%s/%s/json/1/5/BAR_CD=%s",
		c.baseURL, url.PathEscape(c.apiKey), c.serviceID, url.PathEscape(barcode))
}

func (c *Client) fetch(ctx context.Context, barcode string) (*Record, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(barcode), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", fridgeerrors.ErrLookupUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	record, err := parseResponse(body, c.serviceID, barcode)
	c.logger.DebugContext(ctx, "Food API lookup finished",
		"barcode", barcode,
		"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
		"error", err)
	return record, err
}

// parseResponse maps the service envelope to a Record. Keys are matched case-insensitively.
func parseResponse(body []byte, serviceID, barcode string) (*Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	envelope := top
	if raw, ok := lookupKey(top, serviceID); ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: invalid %s envelope: %w", fridgeerrors.ErrLookupUnavailable, serviceID, err)
		}
		envelope = inner
	}

	var result map[string]string
	raw, ok := lookupKey(envelope, "result")
	if !ok {
		return nil, fmt.Errorf("%w: response has no result", fridgeerrors.ErrLookupUnavailable)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid result: %w", fridgeerrors.ErrLookupUnavailable, err)
	}
	code := field(result, "code")
	switch code {
	case codeOK:
	case codeNoData:
		return nil, fmt.Errorf("barcode %s: %w", barcode, fridgeerrors.ErrBarcodeNotFound)
	default:
		return nil, fmt.Errorf("%w: %s %s", fridgeerrors.ErrLookupUnavailable, code, field(result, "msg"))
	}

	var rows []map[string]any
	if raw, ok := lookupKey(envelope, "row"); ok {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: invalid rows: %w", fridgeerrors.ErrLookupUnavailable, err)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("barcode %s has no rows: %w", barcode, fridgeerrors.ErrBarcodeNotFound)
	}
	return toRecord(rows[0], barcode), nil
}

func toRecord(row map[string]any, barcode string) *Record {
	text := func(key string) string {
		for k, v := range row {
			if strings.EqualFold(k, key) && v != nil {
				return strings.TrimSpace(fmt.Sprint(v))
			}
		}
		return ""
	}
	record := &Record{
		Barcode:      barcode,
		Name:         text("PRDLST_NM"),
		Category:     text("PRDLST_DCNM"),
		Manufacturer: text("BSSH_NM"),
		ShelfLife:    text("POG_DAYCNT"),
	}
	if bc := text("BAR_CD"); bc != "" {
		record.Barcode = bc
	}
	// an explicit date is only present for some products; shelf-life text is not a date
	if limit := text("LIMIT_DAY"); limit != "" {
		if d, err := inventory.ParseDate(limit); err == nil {
			record.ExpirationDate = inventory.FormatDate(d)
		}
	}
	return record
}

func lookupKey(m map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func field(m map[string]string, key string) string {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
