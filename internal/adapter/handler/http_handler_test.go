package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/core/service"
	"github.com/rl1809/laventory/internal/metrics"
)

func (f *fixture) server(opts ...HTTPOption) *HTTPServer {
	detection, recipes := f.services()
	h := NewHTTPHandler(f.ledger, detection, recipes, discardLogger(), opts...)
	return NewHTTPServer(h, f.verifier, nil, nil, discardLogger())
}

func do(t *testing.T, srv *HTTPServer, method, target, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInventory(t *testing.T, rec *httptest.ResponseRecorder) InventoryResponse {
	t.Helper()
	var resp InventoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	srv := newFixture(t).server()

	rec := do(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestInventoryFlow(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	token := f.token(t, "alice")

	rec := do(t, srv, http.MethodPost, "/api/inventory/items", token, map[string]any{"name": "apples", "quantity": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("add apples: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, "/api/inventory/items", token, map[string]any{"name": "milk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add milk: expected 200, got %d", rec.Code)
	}
	want := domain.Snapshot{{Name: "apples", Quantity: 5}, {Name: "milk", Quantity: 1}}
	if diff := cmp.Diff(want, decodeInventory(t, rec).Items); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodPost, "/api/inventory/items", token, map[string]any{"name": "apples", "quantity": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add apples again: expected 200, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/inventory/items/milk", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove milk: expected 200, got %d", rec.Code)
	}
	want = domain.Snapshot{{Name: "apples", Quantity: 7}}
	if diff := cmp.Diff(want, decodeInventory(t, rec).Items); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/inventory?q=APP", token, nil)
	if diff := cmp.Diff(want, decodeInventory(t, rec).Items); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/inventory?q=milk", token, nil)
	if got := decodeInventory(t, rec).Items; len(got) != 0 {
		t.Errorf("expected no match, got %v", got)
	}
}

func TestAddItem_QuantityForms(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantQty  int
	}{
		{"missing", `{"name":"tea"}`, http.StatusOK, 1},
		{"null", `{"name":"tea","quantity":null}`, http.StatusOK, 1},
		{"number", `{"name":"tea","quantity":4}`, http.StatusOK, 4},
		{"numeric string", `{"name":"tea","quantity":" 3 "}`, http.StatusOK, 3},
		{"non-numeric string", `{"name":"tea","quantity":"lots"}`, http.StatusOK, 1},
		{"zero", `{"name":"tea","quantity":0}`, http.StatusBadRequest, 0},
		{"negative", `{"name":"tea","quantity":"-2"}`, http.StatusBadRequest, 0},
		{"blank name", `{"name":"  ","quantity":1}`, http.StatusBadRequest, 0},
		{"fractional number", `{"name":"tea","quantity":3.5}`, http.StatusBadRequest, 0},
		{"exponent number", `{"name":"tea","quantity":1e2}`, http.StatusBadRequest, 0},
		{"huge number", `{"name":"tea","quantity":99999999999999999999}`, http.StatusBadRequest, 0},
		{"above 32 bits", `{"name":"tea","quantity":2147483648}`, http.StatusBadRequest, 0},
		{"largest quantity", `{"name":"tea","quantity":2147483647}`, http.StatusOK, domain.MaxQuantity},
		{"digits then text", `{"name":"tea","quantity":"3abc"}`, http.StatusOK, 3},
		{"fractional string", `{"name":"tea","quantity":"2.5"}`, http.StatusOK, 2},
		{"huge string", `{"name":"tea","quantity":"99999999999999999999"}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := do(t, f.server(), http.MethodPost, "/api/inventory/items", f.token(t, "alice"), tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			resp := decodeInventory(t, rec)
			if tt.wantCode != http.StatusOK {
				if resp.ErrorKind != "invalid_input" {
					t.Errorf("expected invalid_input, got %q", resp.ErrorKind)
				}
				return
			}
			item, ok := resp.Items.Get("tea")
			if !ok || item.Quantity != tt.wantQty {
				t.Errorf("expected tea x%d, got %v", tt.wantQty, resp.Items)
			}
		})
	}
}

func TestAddItem_MalformedBody(t *testing.T) {
	f := newFixture(t)
	rec := do(t, f.server(), http.MethodPost, "/api/inventory/items", f.token(t, "alice"), `{"name":`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	token := f.token(t, "alice")

	tests := []struct {
		name     string
		method   string
		target   string
		token    string
		wantCode int
		wantKind string
	}{
		{"list signed out", http.MethodGet, "/api/inventory", "", http.StatusUnauthorized, "unauthenticated"},
		{"bad token", http.MethodGet, "/api/inventory", "not-a-jwt", http.StatusUnauthorized, "unauthenticated"},
		{"remove missing", http.MethodDelete, "/api/inventory/items/ghost", token, http.StatusNotFound, "not_found"},
		{"remove signed out", http.MethodDelete, "/api/inventory/items/ghost", "", http.StatusUnauthorized, "unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, tt.token, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if got := decodeInventory(t, rec).ErrorKind; got != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, got)
			}
		})
	}
}

func TestAddItem_RemoteFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger = service.NewLedgerService(brokenStore{f.store}, service.WithLogger(discardLogger()))
	f.seed(t, "alice", domain.Item{Name: "rice", Quantity: 2})
	token := f.token(t, "alice")

	rec := do(t, f.server(), http.MethodPost, "/api/inventory/items", token, map[string]any{"name": "rice"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if got := decodeInventory(t, rec).ErrorKind; got != "remote_failure" {
		t.Errorf("expected remote_failure, got %q", got)
	}

	rec = do(t, f.server(WithSilentErrors(true)), http.MethodPost, "/api/inventory/items", token, map[string]any{"name": "rice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("silent mode: expected 200, got %d", rec.Code)
	}
	want := domain.Snapshot{{Name: "rice", Quantity: 2}}
	if diff := cmp.Diff(want, decodeInventory(t, rec).Items); diff != "" {
		t.Errorf("silent snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestAddItem_Idempotency(t *testing.T) {
	f := newFixture(t)
	srv := f.server(WithIdempotency(f.store))
	alice := f.token(t, "alice")
	bob := f.token(t, "bob")
	body := map[string]any{"name": "eggs", "quantity": 6}

	rec := do(t, srv, http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("first: expected 200, got %d", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/inventory/items", bob, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("other user: expected 200, got %d", rec.Code)
	}

	item, err := f.store.GetOne(context.Background(), "alice", "eggs")
	if err != nil || item == nil || item.Quantity != 6 {
		t.Errorf("expected alice eggs x6, got %v (err %v)", item, err)
	}
}

func TestAddItem_IdempotencyRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.token(t, "alice")
	body := map[string]any{"name": "eggs", "quantity": 6}

	working := f.ledger
	f.ledger = service.NewLedgerService(brokenStore{f.store}, service.WithLogger(discardLogger()))
	rec := do(t, f.server(WithIdempotency(f.store)), http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("failed add: expected 502, got %d", rec.Code)
	}

	f.ledger = working
	srv := f.server(WithIdempotency(f.store))
	rec = do(t, srv, http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, srv, http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("after success: expected 409, got %d", rec.Code)
	}

	item, err := f.store.GetOne(context.Background(), "alice", "eggs")
	if err != nil || item == nil || item.Quantity != 6 {
		t.Errorf("expected alice eggs x6, got %v (err %v)", item, err)
	}
}

func TestAddItem_InvalidRequestKeepsIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	srv := f.server(WithIdempotency(f.store))
	alice := f.token(t, "alice")

	for _, body := range []string{`{"name":"eggs","quantity":1.5}`, `{"name":"eggs","quantity":0}`} {
		rec := do(t, srv, http.MethodPost, "/api/inventory/items", alice, body, "Idempotency-Key", "k-2")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}

	rec := do(t, srv, http.MethodPost, "/api/inventory/items", alice, `{"name":"eggs","quantity":2}`, "Idempotency-Key", "k-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("valid request: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAddItem_QuantityOverflow(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "alice", domain.Item{Name: "rice", Quantity: domain.MaxQuantity})

	rec := do(t, f.server(), http.MethodPost, "/api/inventory/items", f.token(t, "alice"), map[string]any{"name": "rice", "quantity": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeInventory(t, rec).ErrorKind; got != "invalid_input" {
		t.Errorf("expected invalid_input, got %q", got)
	}
	item, _ := f.store.GetOne(context.Background(), "alice", "rice")
	if item == nil || item.Quantity != domain.MaxQuantity {
		t.Errorf("expected rice unchanged, got %v", item)
	}
}

func TestInventory_UsersAreIsolated(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	f.seed(t, "bob", domain.Item{Name: "cheese", Quantity: 1})

	rec := do(t, srv, http.MethodGet, "/api/inventory", f.token(t, "alice"), nil)
	if got := decodeInventory(t, rec).Items; len(got) != 0 {
		t.Errorf("expected alice to see nothing, got %v", got)
	}
}

func imageRequest(t *testing.T, target, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "fridge.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("\x89PNG\r\n\x1a\n fake image"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestDetect(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	token := f.token(t, "alice")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, imageRequest(t, "/api/detect", token))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp DetectResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Detections) != 2 || resp.Detections[0].Label != "banana" {
		t.Errorf("unexpected detections %v", resp.Detections)
	}
	if resp.Added != nil || len(resp.Items) != 0 {
		t.Errorf("expected nothing added, got %v %v", resp.Added, resp.Items)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, imageRequest(t, "/api/detect?add=true", token))
	if rec.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp = DetectResponse{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	want := domain.Snapshot{{Name: "banana", Quantity: 1}}
	if diff := cmp.Diff(want, resp.Items); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_Errors(t *testing.T) {
	f := newFixture(t)
	f.detect.detections = nil
	srv := f.server()
	token := f.token(t, "alice")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, imageRequest(t, "/api/detect?add=true", token))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "no_detection") {
		t.Errorf("expected 404 no_detection, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, "/api/detect", token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing image: expected 400, got %d", rec.Code)
	}

	f.detect.err = errBackend
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, imageRequest(t, "/api/detect", token))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("detector down: expected 502, got %d", rec.Code)
	}
}

func TestGenerateRecipe(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	token := f.token(t, "alice")
	f.seed(t, "alice", domain.Item{Name: "banana", Quantity: 3}, domain.Item{Name: "flour", Quantity: 1})
	body := RecipeRequest{Ingredients: []string{"banana", "flour"}}

	rec := do(t, srv, http.MethodPost, "/api/recipes", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp RecipeResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if diff := cmp.Diff(f.recipes.recipe, resp.Recipe); diff != "" {
		t.Errorf("recipe mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodPost, "/api/recipes", token, body, "Accept", "text/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("html: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>Banana Bread</h1>") || !strings.Contains(rec.Body.String(), "<li>Mash the bananas.</li>") {
		t.Errorf("unexpected html %s", rec.Body.String())
	}
}

func TestGenerateRecipe_Errors(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	token := f.token(t, "alice")
	f.seed(t, "alice", domain.Item{Name: "banana", Quantity: 3})

	rec := do(t, srv, http.MethodPost, "/api/recipes", token, RecipeRequest{Ingredients: []string{"caviar"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown ingredient: expected 400, got %d", rec.Code)
	}

	f.recipes.recipe = nil
	rec = do(t, srv, http.MethodPost, "/api/recipes", token, RecipeRequest{Ingredients: []string{"banana"}})
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "no_recipe") {
		t.Errorf("expected 404 no_recipe, got %d: %s", rec.Code, rec.Body.String())
	}

	f.recipes.err = errBackend
	rec = do(t, srv, http.MethodPost, "/api/recipes", token, RecipeRequest{Ingredients: []string{"banana"}})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("provider down: expected 502, got %d", rec.Code)
	}
}

func TestItemImage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "alice", domain.Item{Name: "apples", Quantity: 3})
	finder := &fakeImages{url: "https://img.example.com/apples.jpg"}
	srv := f.server(WithImages(service.NewImageService(f.ledger, finder, discardLogger())))
	token := f.token(t, "alice")

	rec := do(t, srv, http.MethodGet, "/api/inventory/items/apples/image", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.URL != finder.url {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestItemImage_Errors(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "alice", domain.Item{Name: "apples", Quantity: 3})
	token := f.token(t, "alice")

	tests := []struct {
		name     string
		opts     []HTTPOption
		target   string
		token    string
		wantCode int
		wantKind string
	}{
		{"signed out", nil, "/api/inventory/items/apples/image", "", http.StatusUnauthorized, "unauthenticated"},
		{"not in stock", nil, "/api/inventory/items/pears/image", token, http.StatusNotFound, "not_found"},
		{"no provider", nil, "/api/inventory/items/apples/image", token, http.StatusBadGateway, "remote_failure"},
		{
			"no match",
			[]HTTPOption{WithImages(service.NewImageService(f.ledger, &fakeImages{}, discardLogger()))},
			"/api/inventory/items/apples/image", token, http.StatusNotFound, "no_image",
		},
		{
			"provider down",
			[]HTTPOption{WithImages(service.NewImageService(f.ledger, &fakeImages{err: errBackend}, discardLogger()))},
			"/api/inventory/items/apples/image", token, http.StatusBadGateway, "remote_failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, f.server(tt.opts...), http.MethodGet, tt.target, tt.token, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			var resp ImageResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.ErrorKind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, resp.ErrorKind)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	f := newFixture(t)
	detection, recipes := f.services()
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg, "http")
	srv := NewHTTPServer(NewHTTPHandler(f.ledger, detection, recipes, discardLogger()), f.verifier, m, metrics.Handler(reg), discardLogger())

	do(t, srv, http.MethodGet, "/api/inventory", "", nil)
	do(t, srv, http.MethodGet, "/api/inventory", f.token(t, "alice"), nil)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/inventory", "401")); got != 1 {
		t.Errorf("expected 1 unauthorized request, got %v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/inventory", "200")); got != 1 {
		t.Errorf("expected 1 ok request, got %v", got)
	}

	rec := do(t, srv, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rec.Body.String(), "laventory_http_requests_total") {
		t.Error("expected metrics endpoint to expose request counter")
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
