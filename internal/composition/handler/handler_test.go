package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/internal/catalog"
	"kitstock/internal/composition"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cat := catalog.NewInMemory(
		catalog.Entry{Code: "KMEDMTRAU1", Name: "Trauma kit", Kind: catalog.KindKit},
		catalog.Entry{Code: "MMEDMDRE1", Name: "Dressing module", Kind: catalog.KindModule},
		catalog.Entry{Code: "DEXTSCALP1", Name: "Scalpel blade", Kind: catalog.KindItem},
	)
	svc, err := composition.NewService(composition.NewInMemoryStore(), cat)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
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

func addNode(t *testing.T, router http.Handler, body map[string]any) string {
	t.Helper()
	rec := postJSON(t, router, "/scenarios/1/composition/nodes", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Treecode string `json:"treecode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Treecode
}

func TestAddKitAllocatesFirstPrimarySlot(t *testing.T) {
	router := newTestRouter(t)

	tc := addNode(t, router, map[string]any{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1})
	assert.Equal(t, "01001000000", tc)
}

func TestAddModuleUnderKit(t *testing.T) {
	router := newTestRouter(t)

	kit := addNode(t, router, map[string]any{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1})
	module := addNode(t, router, map[string]any{
		"kind": "MODULE", "code": "MMEDMDRE1", "std_qty": 1, "parent_treecode": kit,
	})
	assert.Equal(t, "01001001000", module)
}

func TestKindMismatchIs400(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/scenarios/1/composition/nodes", map[string]any{
		"kind": "MODULE", "code": "KMEDMTRAU1", "std_qty": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_hierarchy")
}

func TestDeleteSubtreeReportsCount(t *testing.T) {
	router := newTestRouter(t)

	kit := addNode(t, router, map[string]any{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1})
	addNode(t, router, map[string]any{
		"kind": "MODULE", "code": "MMEDMDRE1", "std_qty": 1, "parent_treecode": kit,
	})

	req := httptest.NewRequest(http.MethodDelete, "/composition/nodes/"+kit, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":2`)
}

func TestDuplicateKitCopiesSubtree(t *testing.T) {
	router := newTestRouter(t)

	kit := addNode(t, router, map[string]any{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1})
	addNode(t, router, map[string]any{
		"kind": "MODULE", "code": "MMEDMDRE1", "std_qty": 1, "parent_treecode": kit,
	})

	rec := postJSON(t, router, "/composition/nodes/"+kit+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Treecode string `json:"treecode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "01002000000", resp.Treecode)

	req := httptest.NewRequest(http.MethodGet, "/composition/nodes/"+resp.Treecode+"/children", nil)
	childRec := httptest.NewRecorder()
	router.ServeHTTP(childRec, req)
	require.Equal(t, http.StatusOK, childRec.Code)
	assert.Contains(t, childRec.Body.String(), "01002001000")
}

func TestImportRejectsUnknownCodesAsABatch(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/scenarios/1/composition/import", []map[string]any{
		{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1},
		{"kind": "ITEM", "code": "NOPE1", "std_qty": 5},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	kit := addNode(t, router, map[string]any{"kind": "KIT", "code": "KMEDMTRAU1", "std_qty": 1})
	addNode(t, router, map[string]any{
		"kind": "ITEM", "code": "DEXTSCALP1", "std_qty": 10, "parent_treecode": kit,
	})

	req := httptest.NewRequest(http.MethodGet, "/scenarios/1/composition/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []composition.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "KMEDMTRAU1", rows[0].Code)
	assert.Equal(t, "DEXTSCALP1", rows[1].Code)
}
