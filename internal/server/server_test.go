package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/productlens/pkg/cache"
	"github.com/matzehuels/productlens/pkg/observability"
	"github.com/matzehuels/productlens/pkg/pipeline"
)

const testManifest = `{
  "metadata": {"project_name": "shop"},
  "nodes": {
    "model.shop.stg_orders": {
      "name": "stg_orders", "resource_type": "model", "package_name": "shop",
      "fqn": ["shop", "retail", "orders", "staging", "stg_orders"]
    },
    "model.shop.fct_orders": {
      "name": "fct_orders", "resource_type": "model", "package_name": "shop",
      "fqn": ["shop", "retail", "orders", "marts", "fct_orders"]
    },
    "model.shop.ledger": {
      "name": "ledger", "resource_type": "model", "package_name": "shop",
      "fqn": ["shop", "finance", "ledger", "ledger"]
    }
  },
  "sources": {
    "source.shop.raw.orders": {
      "name": "orders", "resource_type": "source", "package_name": "shop",
      "fqn": ["shop", "raw", "orders"]
    }
  },
  "exposures": {},
  "child_map": {
    "source.shop.raw.orders": ["model.shop.stg_orders"],
    "model.shop.stg_orders": ["model.shop.fct_orders", "model.shop.ledger"],
    "model.shop.fct_orders": ["model.shop.ledger"]
  },
  "parent_map": {}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	return New(runner, Config{}, logger)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, s *Server) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/analyses", testManifest)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp analysisResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp healthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.Sessions)
}

func TestCreateAnalysis(t *testing.T) {
	t.Run("returns 201 with id and diagnostics", func(t *testing.T) {
		s := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/analyses?name=shop.json", testManifest)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp analysisResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

		_, err := uuid.Parse(resp.ID)
		assert.NoError(t, err)
		assert.Equal(t, "shop.json", resp.Source)
		assert.Equal(t, []string{"finance.ledger", "retail.orders"}, resp.Products)
		assert.Equal(t, 4, resp.Diagnostics.DataNodes)
		assert.Equal(t, 1, resp.Diagnostics.UnattributedNodes)
		assert.Equal(t, []string{"source.shop.raw.orders"}, resp.Diagnostics.Unattributed)
		assert.NotEmpty(t, resp.Fingerprint)
		assert.Equal(t, 1, s.Sessions().Len())
	})

	t.Run("rejects a malformed manifest", func(t *testing.T) {
		s := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/analyses", `{"nodes": {}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "MALFORMED_MANIFEST", string(resp.Code))
		assert.Contains(t, resp.Error, "sources")
	})

	t.Run("rejects non-JSON bodies", func(t *testing.T) {
		s := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/analyses", "not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "MALFORMED_MANIFEST", string(decodeError(t, w).Code))
	})

	t.Run("rejects bad boolean parameters", func(t *testing.T) {
		s := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/analyses?include_internal=maybe", testManifest)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", string(decodeError(t, w).Code))
	})

	t.Run("applies category exclusions", func(t *testing.T) {
		s := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/analyses?exclude_category=finance", testManifest)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp analysisResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, []string{"retail.orders"}, resp.Products)
		assert.Equal(t, 2, resp.Diagnostics.UnattributedNodes)
	})

	t.Run("enforces the upload limit", func(t *testing.T) {
		logger := log.NewWithOptions(io.Discard, log.Options{})
		s := New(pipeline.NewRunner(nil, nil, logger), Config{MaxUploadBytes: 16}, logger)
		w := do(t, s, http.MethodPost, "/api/analyses", testManifest)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestAnalysisLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s)

	w := do(t, s, http.MethodGet, "/api/analyses/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodDelete, "/api/analyses/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/analyses/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", string(decodeError(t, w).Code))
}

func TestUnknownAnalysis(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/analyses/" + uuid.NewString() + "/products",
		"/api/analyses/not-a-uuid/graph",
	} {
		w := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s)

	t.Run("lists summaries", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/analyses/"+id+"/products", "")
		require.Equal(t, http.StatusOK, w.Code)

		var summaries []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summaries))
		require.Len(t, summaries, 2)
		assert.Equal(t, "finance.ledger", summaries[0]["product_name"])
		assert.EqualValues(t, 2, summaries[0]["count_input_edges"])
	})

	t.Run("returns one summary", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/analyses/"+id+"/products/retail.orders", "")
		require.Equal(t, http.StatusOK, w.Code)

		var summary map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.EqualValues(t, 2, summary["node_count"])
		assert.EqualValues(t, 1, summary["count_internal_edges"])
	})

	t.Run("returns 404 for unknown products", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/analyses/"+id+"/products/retail.returns", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", string(decodeError(t, w).Code))
	})
}

func TestNodesAndEdges(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"all nodes", "/nodes", http.StatusOK, 4},
		{"product nodes", "/nodes?product=retail.orders", http.StatusOK, 2},
		{"unattributed nodes", "/nodes?unattributed=true", http.StatusOK, 1},
		{"unknown product nodes", "/nodes?product=retail.returns", http.StatusNotFound, 0},
		{"all edges", "/edges", http.StatusOK, 4},
		{"product edges", "/edges?product=finance.ledger", http.StatusOK, 2},
		{"unattributed edges", "/edges?unattributed=true", http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/analyses/"+id+tt.path, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var records []map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
			assert.Len(t, records, tt.count)
		})
	}
}

func TestGraph(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s)
	base := "/api/analyses/" + id

	t.Run("renders the product graph as DOT", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/graph?format=dot", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/vnd.graphviz")
		assert.Contains(t, w.Body.String(), `"retail.orders" -> "finance.ledger" [label="2"];`)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "DOT is never read from the cache")
	})

	t.Run("returns the graph as JSON with exclusions", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/graph?format=json&exclude=finance.ledger", "")
		require.Equal(t, http.StatusOK, w.Code)

		var g struct {
			Nodes []map[string]any `json:"nodes"`
			Edges []map[string]any `json:"edges"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&g))
		assert.Len(t, g.Nodes, 1)
		assert.Empty(t, g.Edges)
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/graph?format=gif", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FORMAT", string(decodeError(t, w).Code))
	})

	t.Run("renders a product drill-down", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/products/finance.ledger/graph?format=dot", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `label="finance.ledger"`)
		assert.Contains(t, body, `fillcolor="green"`)
	})

	t.Run("renders a node-level drill-down", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/products/retail.orders/graph?format=dot&level=node", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"retail.orders.stg_orders" -> "retail.orders.fct_orders";`)
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/products/retail.orders/graph?level=column", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type routeRecorder struct {
	observability.NoopServerHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (r *routeRecorder) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
	r.status = append(r.status, status)
}

func TestServerHooks(t *testing.T) {
	rec := &routeRecorder{}
	observability.SetServerHooks(rec)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	id := upload(t, s)
	do(t, s, http.MethodGet, "/api/analyses/"+id+"/products", "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.routes, 2)
	assert.True(t, strings.HasPrefix(rec.routes[0], "POST /api/analyses"), rec.routes[0])
	assert.Equal(t, http.StatusCreated, rec.status[0])
	assert.True(t, strings.HasSuffix(rec.routes[1], "/{id}/products"), rec.routes[1])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodOptions, "/api/analyses", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
