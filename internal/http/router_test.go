package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/http/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int]catalog.Product
	err      error
	gets     []int
}

func (f *fakeCatalog) Page(ctx context.Context, page, limit int) ([]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Product
	for id := (page-1)*limit + 1; id <= page*limit; id++ {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Product(ctx context.Context, id int) (catalog.Product, error) {
	f.mu.Lock()
	f.gets = append(f.gets, id)
	f.mu.Unlock()
	if f.err != nil {
		return catalog.Product{}, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) Suggested(ctx context.Context, exclude int) ([]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Product
	for id := 1; id <= 20; id++ {
		if p, ok := f.products[id]; ok && id != exclude {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}

type recordingPublisher struct {
	mu    sync.Mutex
	metas []events.EventMeta
	got   []cart.Change
	err   error
}

func (p *recordingPublisher) PublishCartItemChanged(ctx context.Context, meta events.EventMeta, c cart.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metas = append(p.metas, meta)
	p.got = append(p.got, c)
	return p.err
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestCatalog() *fakeCatalog {
	disc := price("7.50")
	return &fakeCatalog{products: map[int]catalog.Product{
		1: {ID: 1, Title: "Backpack", Price: price("109.95")},
		5: {ID: 5, Title: "Bracelet", Price: price("10.00")},
		9: {ID: 9, Title: "Hard drive", Price: price("20.00")},
		3: {ID: 3, Title: "Jacket", Price: price("10.00"), DiscountedPrice: &disc},
	}}
}

func newTestRouter(c *fakeCatalog, pub events.CartPublisher) http.Handler {
	return NewRouter(Deps{
		Logger:  zerolog.Nop(),
		Cfg:     config.Config{CORSAllowOrigins: []string{"*"}, PageSize: 10, MaxHydrationConcurrency: 4},
		Catalog: c,
		Events:  pub,
	})
}

func do(t *testing.T, h http.Handler, method, target, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "cart", Value: cookie})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func cartCookie(rr *httptest.ResponseRecorder) (string, bool) {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "cart" {
			return c.Value, true
		}
	}
	return "", false
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthRoute(t *testing.T) {
	rr := do(t, newTestRouter(newTestCatalog(), nil), http.MethodGet, "/health", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := decode[dto.HealthResponse](t, rr)
	if body.Status != "ok" || body.Service != "storefront" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCorrelationIDEchoAndGeneration(t *testing.T) {
	router := newTestRouter(newTestCatalog(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-Id"); got != "abc" {
		t.Fatalf("expected correlation id to be echoed, got %q", got)
	}

	rr = do(t, router, http.MethodGet, "/health", "", "")
	if rr.Header().Get("X-Correlation-Id") == "" {
		t.Fatalf("expected generated correlation id to be present")
	}
}

func TestListProductsAnnotatesCart(t *testing.T) {
	rr := do(t, newTestRouter(newTestCatalog(), nil), http.MethodGet, "/api/products?page=1&limit=10", "", "{%225%22:2}")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	page := decode[dto.ProductPage](t, rr)
	if page.Page != 1 || page.Limit != 10 || len(page.Items) != 4 {
		t.Fatalf("unexpected page %+v", page)
	}

	byID := map[int]dto.Product{}
	for _, p := range page.Items {
		byID[p.ID] = p
	}
	if byID[5].InCart != 2 || byID[9].InCart != 0 {
		t.Fatalf("unexpected cart annotations %+v", byID)
	}
	if byID[3].EffectivePrice != "7.50" || byID[3].OriginalPrice != "10.00" {
		t.Fatalf("unexpected discount annotation %+v", byID[3])
	}
	if byID[1].OriginalPrice != "" || byID[1].EffectivePrice != "109.95" {
		t.Fatalf("unexpected price annotation %+v", byID[1])
	}
	if _, ok := cartCookie(rr); ok {
		t.Fatalf("reading the listing must not write the cart cookie")
	}
}

func TestListProductsValidatesCursor(t *testing.T) {
	router := newTestRouter(newTestCatalog(), nil)

	tests := map[string]string{
		"zero page":      "/api/products?page=0",
		"text page":      "/api/products?page=two",
		"negative limit": "/api/products?limit=-1",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, target, "", "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestGetProduct(t *testing.T) {
	tests := map[string]struct {
		target     string
		err        error
		wantStatus int
	}{
		"found":           {target: "/api/products/5", wantStatus: http.StatusOK},
		"unknown":         {target: "/api/products/404", wantStatus: http.StatusNotFound},
		"bad id":          {target: "/api/products/abc", wantStatus: http.StatusBadRequest},
		"catalog failure": {target: "/api/products/5", err: errors.New("boom"), wantStatus: http.StatusBadGateway},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestCatalog()
			c.err = tc.err
			rr := do(t, newTestRouter(c, nil), http.MethodGet, tc.target, "", "{%229%22:1}")

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if tc.wantStatus != http.StatusOK {
				if body := decode[model.ErrorResponse](t, rr); body.Error == "" || body.CorrelationID == "" {
					t.Fatalf("expected error body with correlation id, got %+v", body)
				}
				return
			}

			detail := decode[dto.ProductDetail](t, rr)
			if detail.Product.ID != 5 || len(detail.Suggested) != 3 {
				t.Fatalf("unexpected detail %+v", detail)
			}
			for _, s := range detail.Suggested {
				if s.ID == 5 {
					t.Fatalf("suggested must exclude the viewed product")
				}
				if s.ID == 9 && s.InCart != 1 {
					t.Fatalf("suggested product 9 should show its cart quantity")
				}
			}
		})
	}
}

func TestAddItem(t *testing.T) {
	c := newTestCatalog()
	pub := &recordingPublisher{}
	router := newTestRouter(c, pub)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items/7", nil)
	req.Header.Set("X-Correlation-Id", "cid-9")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rr.Code)
	}
	if _, ok := cartCookie(rr); ok {
		t.Fatalf("unknown product must leave the cookie untouched")
	}

	c.products[7] = catalog.Product{ID: 7, Title: "Shirt", Price: price("5")}

	rr = do(t, router, http.MethodPost, "/api/cart/items/7", "", "")
	first, ok := cartCookie(rr)
	if rr.Code != http.StatusOK || !ok {
		t.Fatalf("expected 200 with cookie, got %d", rr.Code)
	}

	rr = do(t, router, http.MethodPost, "/api/cart/items/7", "", first)
	second, _ := cartCookie(rr)
	if second != "{%227%22:2}" {
		t.Fatalf("expected one entry with quantity 2, got %q", second)
	}
	body := decode[dto.ItemChanged](t, rr)
	if !body.Added || body.Quantity != 2 || body.Count != 2 {
		t.Fatalf("unexpected body %+v", body)
	}

	if len(pub.got) != 2 || pub.got[1].Action != cart.ActionAdded {
		t.Fatalf("expected two added events, got %+v", pub.got)
	}
}

func TestAddItemPublishesCorrelationID(t *testing.T) {
	pub := &recordingPublisher{}
	router := newTestRouter(newTestCatalog(), pub)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items/5", nil)
	req.Header.Set("X-Correlation-Id", "cid-9")
	router.ServeHTTP(httptest.NewRecorder(), req)

	// the event is out by the time the response is written
	if len(pub.metas) != 1 || pub.metas[0].CorrelationID != "cid-9" {
		t.Fatalf("expected event with correlation id, got %+v", pub.metas)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	rr := do(t, newTestRouter(newTestCatalog(), pub), http.MethodPost, "/api/cart/items/5", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got, _ := cartCookie(rr); got != "{%225%22:1}" {
		t.Fatalf("unexpected cookie %q", got)
	}
	if len(pub.got) != 1 {
		t.Fatalf("expected one publish attempt before the response, got %d", len(pub.got))
	}
}

func TestChangeAndSetQuantity(t *testing.T) {
	router := newTestRouter(newTestCatalog(), nil)

	tests := map[string]struct {
		method     string
		target     string
		body       string
		cookie     string
		wantStatus int
		wantCookie string
	}{
		"decrement to removal": {method: http.MethodPatch, target: "/api/cart/items/5", body: `{"delta":-1}`, cookie: "{%225%22:1%2C%229%22:1}", wantStatus: http.StatusOK, wantCookie: "{%229%22:1}"},
		"increment":            {method: http.MethodPatch, target: "/api/cart/items/5", body: `{"delta":1}`, cookie: "{%225%22:1}", wantStatus: http.StatusOK, wantCookie: "{%225%22:2}"},
		"increment unknown":    {method: http.MethodPatch, target: "/api/cart/items/77", body: `{"delta":1}`, wantStatus: http.StatusNotFound},
		"set":                  {method: http.MethodPut, target: "/api/cart/items/9", body: `{"quantity":4}`, cookie: "{%225%22:1}", wantStatus: http.StatusOK, wantCookie: "{%225%22:1%2C%229%22:4}"},
		"set zero removes":     {method: http.MethodPut, target: "/api/cart/items/5", body: `{"quantity":0}`, cookie: "{%225%22:3}", wantStatus: http.StatusOK, wantCookie: "{}"},
		"set missing quantity": {method: http.MethodPut, target: "/api/cart/items/5", body: `{}`, wantStatus: http.StatusBadRequest},
		"bad json":             {method: http.MethodPatch, target: "/api/cart/items/5", body: `{`, wantStatus: http.StatusBadRequest},
		"delta overflow":       {method: http.MethodPatch, target: "/api/cart/items/5", body: `{"delta":9223372036854775807}`, cookie: "{%225%22:2}", wantStatus: http.StatusBadRequest},
		"add at max":           {method: http.MethodPost, target: "/api/cart/items/5", cookie: "{%225%22:9999}", wantStatus: http.StatusBadRequest},
		"set above max":        {method: http.MethodPut, target: "/api/cart/items/5", body: `{"quantity":10000}`, cookie: "{%225%22:2}", wantStatus: http.StatusBadRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rr := do(t, router, tc.method, tc.target, tc.body, tc.cookie)
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			got, ok := cartCookie(rr)
			if tc.wantCookie == "" {
				if ok {
					t.Fatalf("expected no cookie write, got %q", got)
				}
				return
			}
			if got != tc.wantCookie {
				t.Fatalf("expected cookie %q, got %q", tc.wantCookie, got)
			}
		})
	}
}

func TestCartPage(t *testing.T) {
	c := newTestCatalog()
	rr := do(t, newTestRouter(c, nil), http.MethodGet, "/api/cart", "", "{%225%22:2%2C%229%22:1}")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	page := decode[dto.CartPage](t, rr)
	if page.Subtotal != "40.00" || page.Total != "40.00" || page.Shipping != "free" || page.Count != 3 || page.Empty {
		t.Fatalf("unexpected cart page %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].Product.ID != 5 || page.Items[0].LineTotal != "20.00" || page.Items[0].UnitPrice != "10.00" {
		t.Fatalf("unexpected lines %+v", page.Items)
	}
}

func TestEmptyCartPageFetchesNothing(t *testing.T) {
	c := newTestCatalog()
	router := newTestRouter(c, nil)

	for _, cookie := range []string{"", "garbage", "{%225%22:0}"} {
		rr := do(t, router, http.MethodGet, "/api/cart", "", cookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		page := decode[dto.CartPage](t, rr)
		if !page.Empty || page.GetProducts != "/" || page.Subtotal != "0.00" || len(page.Items) != 0 {
			t.Fatalf("unexpected empty page %+v", page)
		}
	}
	if c.getCount() != 0 {
		t.Fatalf("empty cart must not fetch products, got %d fetches", c.getCount())
	}
}

func TestCartPageHydrationFailure(t *testing.T) {
	rr := do(t, newTestRouter(newTestCatalog(), nil), http.MethodGet, "/api/cart", "", "{%225%22:2%2C%2242%22:1}")

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if _, ok := cartCookie(rr); ok {
		t.Fatalf("failed hydration must not rewrite the cart")
	}
}

func TestChangeLineReturnsRecomputedPage(t *testing.T) {
	router := newTestRouter(newTestCatalog(), nil)

	rr := do(t, router, http.MethodPatch, "/api/cart/lines/9", `{"delta":1}`, "{%225%22:2%2C%229%22:1}")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	page := decode[dto.CartPage](t, rr)
	if page.Subtotal != "60.00" || page.Count != 4 {
		t.Fatalf("unexpected page %+v", page)
	}
	if got, _ := cartCookie(rr); got != "{%225%22:2%2C%229%22:2}" {
		t.Fatalf("unexpected cookie %q", got)
	}

	// ids that are not on the page are ignored
	rr = do(t, router, http.MethodPatch, "/api/cart/lines/1", `{"delta":1}`, "{%225%22:2}")
	if _, ok := cartCookie(rr); ok || decode[dto.CartPage](t, rr).Subtotal != "20.00" {
		t.Fatalf("expected no-op for a line that is not on the page")
	}
}

func TestCountAndCheckout(t *testing.T) {
	router := newTestRouter(newTestCatalog(), nil)

	rr := do(t, router, http.MethodGet, "/api/cart/count", "", "{%225%22:2%2C%229%22:1}")
	if decode[dto.CartCount](t, rr).Count != 3 {
		t.Fatalf("unexpected count body %s", rr.Body.String())
	}

	rr = do(t, router, http.MethodPost, "/api/checkout", "", "")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/cart/items/5", nil)
	req.Header.Set("Origin", "http://shop.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	newTestRouter(newTestCatalog(), nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentialed CORS")
	}
}
