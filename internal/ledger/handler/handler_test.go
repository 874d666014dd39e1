package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/internal/ledger"
	"kitstock/internal/transport/http/shared"
)

func newTestRouter(t *testing.T) (http.Handler, *ledger.InMemoryStore) {
	t.Helper()
	store := ledger.NewInMemoryStore()
	svc, err := ledger.NewService(store)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, store
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func testAddress() shared.AddressPayload {
	return shared.AddressPayload{
		Scenario: 1,
		Item:     "DINJATRS1V",
		StdQty:   50,
		Expiry:   "2027-06-30",
	}
}

func TestReceiveCreatesLine(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/stock/receive", map[string]any{
		"address":  testAddress(),
		"quantity": 50,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		QtyIn  int `json:"qty_in"`
		QtyOut int `json:"qty_out"`
		Final  int `json:"final"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.QtyIn)
	assert.Equal(t, 0, resp.QtyOut)
	assert.Equal(t, 50, resp.Final)
}

func TestWithdrawAgainstUnknownAddressIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/stock/withdraw", map[string]any{
		"address":  testAddress(),
		"quantity": 5,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_address")
}

func TestNonPositiveQuantityIs422(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/stock/receive", map[string]any{
		"address":  testAddress(),
		"quantity": 0,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetLineByEncodedAddress(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/stock/receive", map[string]any{
		"address":  testAddress(),
		"quantity": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	encoded := url.QueryEscape("1|NA|NA|DINJATRS1V|50|2027-06-30")
	req := httptest.NewRequest(http.MethodGet, "/stock/line?address="+encoded, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)

	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Contains(t, getRec.Body.String(), `"final":30`)
}

func TestDelimiterBearingItemCodeIs400(t *testing.T) {
	router, _ := newTestRouter(t)

	addr := testAddress()
	addr.Item = "DINJ|ATRS1V"
	rec := postJSON(t, router, "/stock/receive", map[string]any{
		"address":  addr,
		"quantity": 10,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_address")
}

func TestMalformedEncodedAddressIs400(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stock/line?address=not-an-address", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListScenarioStock(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, postJSON(t, router, "/stock/receive", map[string]any{
		"address": testAddress(), "quantity": 10,
	}).Code)
	other := testAddress()
	other.Scenario = 2
	require.Equal(t, http.StatusOK, postJSON(t, router, "/stock/receive", map[string]any{
		"address": other, "quantity": 99,
	}).Code)

	req := httptest.NewRequest(http.MethodGet, "/scenarios/1/stock", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var lines []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	assert.Len(t, lines, 1)
}
