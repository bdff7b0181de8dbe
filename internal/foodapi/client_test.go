package foodapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{"C005":{"total_count":"1","row":[{
	"BAR_CD":"8801043014809","PRDLST_NM":"신라면","PRDLST_DCNM":"유탕면",
	"BSSH_NM":"농심","POG_DAYCNT":"제조일로부터 6개월","LIMIT_DAY":"20250131"}],
	"RESULT":{"MSG":"정상처리되었습니다.","CODE":"INFO-000"}}}`

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(baseURL string) config.FoodAPIConfig {
	return config.FoodAPIConfig{
		BaseURL:   baseURL + "/api/",
		APIKey:    "sample key",
		ServiceID: "C005",
		Timeout:   2 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 2,
			ErrorRatePercent:    100,
			OpenTimeout:         time.Minute,
			HalfOpenRequests:    1,
		},
	}
}

func Test_Client_Lookup(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expected    *Record
		expectError error
	}{
		{
			name:   "Success - record found",
			status: http.StatusOK,
			body:   okResponse,
			expected: &Record{
				Barcode:        "8801043014809",
				Name:           "신라면",
				Category:       "유탕면",
				Manufacturer:   "농심",
				ShelfLife:      "제조일로부터 6개월",
				ExpirationDate: "20250131",
			},
		},
		{
			name:   "Success - lowercase keys without date",
			status: http.StatusOK,
			body: `{"C005":{"row":[{"prdlst_nm":"우유","prdlst_dcnm":"냉장 우유","bssh_nm":"서울우유","pog_daycnt":"10일"}],
				"result":{"msg":"ok","code":"INFO-000"}}}`,
			expected: &Record{
				Barcode:      "8801043014809",
				Name:         "우유",
				Category:     "냉장 우유",
				Manufacturer: "서울우유",
				ShelfLife:    "10일",
			},
		},
		{
			name:        "Error - no data",
			status:      http.StatusOK,
			body:        `{"C005":{"total_count":"0","RESULT":{"MSG":"해당하는 데이터가 없습니다.","CODE":"INFO-200"}}}`,
			expectError: fridgeerrors.ErrBarcodeNotFound,
		},
		{
			name:        "Error - ok without rows",
			status:      http.StatusOK,
			body:        `{"C005":{"total_count":"0","RESULT":{"MSG":"ok","CODE":"INFO-000"}}}`,
			expectError: fridgeerrors.ErrBarcodeNotFound,
		},
		{
			name:        "Error - invalid key",
			status:      http.StatusOK,
			body:        `{"RESULT":{"MSG":"인증키가 유효하지 않습니다.","CODE":"INFO-100"}}`,
			expectError: fridgeerrors.ErrLookupUnavailable,
		},
		{
			name:        "Error - server failure",
			status:      http.StatusInternalServerError,
			body:        `oops`,
			expectError: fridgeerrors.ErrLookupUnavailable,
		},
		{
			name:        "Error - invalid json",
			status:      http.StatusOK,
			body:        `<html>`,
			expectError: fridgeerrors.ErrLookupUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.EscapedPath()
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			client := NewClient(testConfig(srv.URL), discard)
			// when
			record, err := client.Lookup(context.Background(), "8801043014809")
			// then
			assert.Equal(t, "/api/sample%20key/C005/json/1/5/BAR_CD=8801043014809", path)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, record)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, record)
		})
	}
}

func Test_Client_Lookup_EmptyBarcode(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), discard)

	_, err := client.Lookup(context.Background(), "  ")

	assert.ErrorIs(t, err, fridgeerrors.ErrInvalidIdentifier)
}

func Test_Client_CircuitBreaker(t *testing.T) {
	// given
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewClient(testConfig(srv.URL), discard)

	// when
	for range 2 {
		_, err := client.Lookup(context.Background(), "1")
		require.ErrorIs(t, err, fridgeerrors.ErrLookupUnavailable)
	}
	_, err := client.Lookup(context.Background(), "1")

	// then
	assert.ErrorIs(t, err, fridgeerrors.ErrLookupUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the API")
}

func Test_Client_CircuitBreaker_NotFoundIsNotFailure(t *testing.T) {
	// given
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"C005":{"RESULT":{"MSG":"none","CODE":"INFO-200"}}}`))
	}))
	defer srv.Close()
	client := NewClient(testConfig(srv.URL), discard)

	// when
	for range 5 {
		_, err := client.Lookup(context.Background(), "1")
		require.ErrorIs(t, err, fridgeerrors.ErrBarcodeNotFound)
	}

	// then
	assert.Equal(t, int32(5), hits.Load())
	assert.Equal(t, gobreaker.StateClosed, client.breaker.State())
}

func Test_ClassifyStorage(t *testing.T) {
	testCases := []struct {
		category string
		expected Storage
	}{
		{category: "냉동만두", expected: StorageFrozen},
		{category: "Frozen dumplings", expected: StorageFrozen},
		{category: "냉장 우유", expected: StorageRefrigerated},
		{category: "Refrigerated dairy", expected: StorageRefrigerated},
		{category: "chilled salad", expected: StorageRefrigerated},
		{category: "냉동·냉장 겸용", expected: StorageFrozen},
		{category: "유탕면", expected: StorageRoom},
		{category: "", expected: StorageRoom},
	}
	for _, tc := range testCases {
		t.Run(tc.category, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyStorage(tc.category))
		})
	}
}
