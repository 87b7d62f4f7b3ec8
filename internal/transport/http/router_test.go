package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
	"github.com/vladislavdragonenkov/catalog/internal/service/product"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

type apiFixture struct {
	handler http.Handler
	store   *memory.Store
}

func newAPIFixture(t *testing.T, policy domain.PricePolicy) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	productSvc := product.NewService(store, outbox, policy, nil, nil)
	orderSvc := order.NewService(memory.NewOrderRepository(store), store, outbox, nil, nil)
	idem := NewIdempotencyMiddleware(memory.NewIdempotencyRepository(), time.Hour, nil)

	return &apiFixture{
		handler: NewRouter(NewProductHandler(productSvc, nil), NewOrderHandler(orderSvc, nil), idem),
		store:   store,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (f *apiFixture) createProduct(t *testing.T, name, price, ptype string, active bool) productResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/products", map[string]any{
		"name":   name,
		"price":  price,
		"type":   ptype,
		"active": active,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[productResponse](t, rec)
}

func TestAPI_ProductLifecycle(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)

	created := f.createProduct(t, "кабель", "30.005", "good", true)
	if created.Price != "30.00" {
		t.Fatalf("expected canonical price 30.00, got %s", created.Price)
	}
	if created.Links.Self.Href != "/products/"+created.ID {
		t.Fatalf("unexpected self link %q", created.Links.Self.Href)
	}

	rec := f.do(t, http.MethodGet, "/products/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/products/"+created.ID, map[string]any{
		"name":   "кабель медный",
		"price":  "35.00",
		"type":   "good",
		"active": false,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[productResponse](t, rec)
	if updated.Name != "кабель медный" || updated.Active {
		t.Fatalf("unexpected updated product: %+v", updated)
	}

	rec = f.do(t, http.MethodDelete, "/products/"+created.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/products/"+created.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestAPI_ProductValidation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyReject)

	rec := f.do(t, http.MethodPost, "/products", map[string]any{"name": "x", "price": "1.00", "type": "furniture"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type: expected 400, got %d", rec.Code)
	}
	if body := decodeBody[errorResponse](t, rec); body.Error != "invalid_type" {
		t.Fatalf("expected invalid_type error, got %q", body.Error)
	}

	rec = f.do(t, http.MethodPost, "/products", map[string]any{"name": " ", "price": "1.00", "type": "good"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected 400, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/products", map[string]any{"name": "x", "price": "-1.00", "type": "good"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative price with reject policy: expected 400, got %d", rec.Code)
	}
	if body := decodeBody[errorResponse](t, rec); body.Error != "price_negative" {
		t.Fatalf("expected price_negative error, got %q", body.Error)
	}
}

func TestAPI_ProductListFilterAndPaging(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	f.createProduct(t, "кабель", "10.00", "good", true)
	f.createProduct(t, "щиток", "20.00", "good", false)
	f.createProduct(t, "монтаж", "30.00", "service", true)

	rec := f.do(t, http.MethodGet, "/products?type=good&active=true", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	page := decodeBody[productPageResponse](t, rec)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Name != "кабель" {
		t.Fatalf("unexpected page: %+v", page)
	}

	rec = f.do(t, http.MethodGet, "/products?page=-1", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative page: expected 400, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/products?size=0", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero size: expected 400, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/products?active=banana", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad active: expected 400, got %d", rec.Code)
	}
}

func TestAPI_OrderCreateComputesTotal(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)
	panel := f.createProduct(t, "щиток", "50.00", "good", true)
	install := f.createProduct(t, "монтаж", "20.00", "service", true)

	rec := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status":   "open",
		"discount": 15,
		"items": []map[string]any{
			{"product_id": cable.ID, "amount": 2},
			{"product_id": panel.ID, "amount": 1},
			{"product_id": install.ID, "amount": 1},
		},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created := decodeBody[orderResponse](t, rec)
	if created.Total != "113.50" {
		t.Fatalf("expected total 113.50, got %s", created.Total)
	}
	if created.Status != "OPEN" || len(created.Items) != 3 {
		t.Fatalf("unexpected order: %+v", created)
	}
	if created.Links.Self.Href != "/orders/"+created.ID {
		t.Fatalf("unexpected self link %q", created.Links.Self.Href)
	}
}

func TestAPI_OrderValidation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	inactive := f.createProduct(t, "снятый с продажи", "10.00", "good", false)

	// Неактивный товар — 422: запрос корректен, но позиция невалидна.
	rec := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": inactive.ID, "amount": 1}},
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("inactive product: expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody[errorResponse](t, rec); body.Error != "invalid_item" {
		t.Fatalf("expected invalid_item error, got %q", body.Error)
	}

	rec = f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": "missing", "amount": 1}},
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing product: expected 404, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/orders", map[string]any{"status": "pending"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": inactive.ID, "amount": 0}},
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-positive amount: expected 400, got %d", rec.Code)
	}
}

func TestAPI_OrderRejectsNegativeDiscount(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)

	body := map[string]any{
		"status":   "open",
		"discount": -5,
		"items":    []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}

	rec := f.do(t, http.MethodPost, "/orders", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative discount on create: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Error != "invalid_discount" {
		t.Fatalf("expected invalid_discount error, got %q", resp.Error)
	}

	created := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}, nil)
	if created.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", created.Code)
	}
	order := decodeBody[orderResponse](t, created)

	rec = f.do(t, http.MethodPut, "/orders/"+order.ID, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative discount on update: expected 400, got %d", rec.Code)
	}

	// Отклонённое обновление не трогает сохранённый заказ.
	rec = f.do(t, http.MethodGet, "/orders/"+order.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get after rejected update: expected 200, got %d", rec.Code)
	}
	if got := decodeBody[orderResponse](t, rec); got.Discount != 0 {
		t.Fatalf("discount must stay 0, got %d", got.Discount)
	}
}

func TestAPI_MalformedPathIDs(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)

	paths := []struct {
		method string
		path   string
		body   map[string]any
	}{
		{http.MethodGet, "/products/not-a-uuid", nil},
		{http.MethodPut, "/products/not-a-uuid", map[string]any{"name": "x", "price": "1.00", "type": "good"}},
		{http.MethodDelete, "/products/not-a-uuid", nil},
		{http.MethodGet, "/orders/not-a-uuid", nil},
		{http.MethodPut, "/orders/not-a-uuid", map[string]any{"status": "open"}},
		{http.MethodDelete, "/orders/not-a-uuid", nil},
	}

	for _, tc := range paths {
		rec := f.do(t, tc.method, tc.path, tc.body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d: %s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
		if resp := decodeBody[errorResponse](t, rec); resp.Error != "invalid_id" {
			t.Fatalf("%s %s: expected invalid_id error, got %q", tc.method, tc.path, resp.Error)
		}
	}
}

func TestAPI_DeleteLinkedProductConflicts(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)

	rec := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/products/"+cable.ID, nil, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete linked product: expected 409, got %d", rec.Code)
	}
	if body := decodeBody[errorResponse](t, rec); body.Error != "product_linked" {
		t.Fatalf("expected product_linked error, got %q", body.Error)
	}
}

func TestAPI_OrderRehydrationAgainstCatalog(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)

	rec := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", rec.Code)
	}
	created := decodeBody[orderResponse](t, rec)

	// Деактивация товара ломает сохранённый заказ при чтении.
	rec = f.do(t, http.MethodPut, "/products/"+cable.ID, map[string]any{
		"name":   "кабель",
		"price":  "30.00",
		"type":   "good",
		"active": false,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate product: expected 200, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/orders/"+created.ID, nil, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("get order with deactivated product: expected 422, got %d", rec.Code)
	}
}

func TestAPI_OrderUpdateAndDelete(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)
	panel := f.createProduct(t, "щиток", "50.00", "good", true)

	rec := f.do(t, http.MethodPost, "/orders", map[string]any{
		"status":   "open",
		"discount": 10,
		"items":    []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", rec.Code)
	}
	created := decodeBody[orderResponse](t, rec)

	rec = f.do(t, http.MethodPut, "/orders/"+created.ID, map[string]any{
		"status":   "closed",
		"discount": 50,
		"items":    []map[string]any{{"product_id": panel.ID, "amount": 2}},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[orderResponse](t, rec)
	if updated.Status != "CLOSED" || updated.Total != "100.00" {
		t.Fatalf("unexpected updated order: %+v", updated)
	}

	rec = f.do(t, http.MethodDelete, "/orders/"+created.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete order: expected 204, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/orders/"+created.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted order: expected 404, got %d", rec.Code)
	}
}

func TestAPI_IdempotentOrderCreation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)

	body := map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": cable.ID, "amount": 1}},
	}
	headers := map[string]string{"Idempotency-Key": "order-key-1"}

	first := f.do(t, http.MethodPost, "/orders", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d: %s", first.Code, first.Body.String())
	}

	second := f.do(t, http.MethodPost, "/orders", body, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d: %s", second.Code, second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay must return the stored response:\nfirst:  %s\nsecond: %s", first.Body.String(), second.Body.String())
	}

	// Один и тот же ключ с другим телом — конфликт.
	other := map[string]any{
		"status": "open",
		"items":  []map[string]any{{"product_id": cable.ID, "amount": 5}},
	}
	mismatch := f.do(t, http.MethodPost, "/orders", other, headers)
	if mismatch.Code != http.StatusConflict {
		t.Fatalf("hash mismatch: expected 409, got %d", mismatch.Code)
	}
	if resp := decodeBody[errorResponse](t, mismatch); resp.Error != "idempotency_mismatch" {
		t.Fatalf("expected idempotency_mismatch, got %q", resp.Error)
	}

	// Ошибочный ответ тоже кэшируется и воспроизводится.
	badBody := map[string]any{"status": "pending"}
	badHeaders := map[string]string{"Idempotency-Key": "order-key-2"}
	badFirst := f.do(t, http.MethodPost, "/orders", badBody, badHeaders)
	if badFirst.Code != http.StatusBadRequest {
		t.Fatalf("bad request: expected 400, got %d", badFirst.Code)
	}
	badSecond := f.do(t, http.MethodPost, "/orders", badBody, badHeaders)
	if badSecond.Code != http.StatusBadRequest || badFirst.Body.String() != badSecond.Body.String() {
		t.Fatalf("failed response must replay: %d %s", badSecond.Code, badSecond.Body.String())
	}

	// Без заголовка каждый запрос создаёт новый заказ.
	third := f.do(t, http.MethodPost, "/orders", body, nil)
	if third.Code != http.StatusCreated {
		t.Fatalf("no key: expected 201, got %d", third.Code)
	}
	firstOrder := decodeBody[orderResponse](t, first)
	thirdOrder := decodeBody[orderResponse](t, third)
	if firstOrder.ID == thirdOrder.ID {
		t.Fatal("requests without idempotency key must create distinct orders")
	}
}

func TestAPI_OrderListFiltersByStatus(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, domain.PricePolicyPassthrough)
	cable := f.createProduct(t, "кабель", "30.00", "good", true)

	for i, status := range []string{"open", "open", "closed"} {
		rec := f.do(t, http.MethodPost, "/orders", map[string]any{
			"status": status,
			"items":  []map[string]any{{"product_id": cable.ID, "amount": int64(i + 1)}},
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create order %d: expected 201, got %d", i, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/orders?status=open", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	page := decodeBody[orderPageResponse](t, rec)
	if page.Total != 2 {
		t.Fatalf("expected 2 open orders, got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Status != "OPEN" {
			t.Fatalf("expected only OPEN orders, got %s", item.Status)
		}
	}

	rec = f.do(t, http.MethodGet, "/orders?status=pending", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: expected 400, got %d", rec.Code)
	}
}
