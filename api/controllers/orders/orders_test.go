package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	internalorders "github.com/angelmondragon/cafehop-backend/internal/orders"
	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
	"github.com/shopspring/decimal"
)

type stubOrdersService struct {
	order     internalorders.Order
	list      internalorders.ListResult
	err       error
	lastList  internalorders.ListInput
	lastSess  internalorders.SessionListInput
	lastID    string
	lastState enums.OrderStatus
}

func (s *stubOrdersService) Place(ctx context.Context, input internalorders.PlaceInput) (internalorders.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, id string) (internalorders.Order, error) {
	s.lastID = id
	return s.order, s.err
}

func (s *stubOrdersService) ListByCafe(ctx context.Context, input internalorders.ListInput) (internalorders.ListResult, error) {
	s.lastList = input
	return s.list, s.err
}

func (s *stubOrdersService) ListBySession(ctx context.Context, input internalorders.SessionListInput) (internalorders.ListResult, error) {
	s.lastSess = input
	return s.list, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, id string, target enums.OrderStatus) (internalorders.Order, error) {
	s.lastID = id
	s.lastState = target
	if s.err != nil {
		return internalorders.Order{}, s.err
	}
	out := s.order
	out.Status = target
	return out, nil
}

func (s *stubOrdersService) Advance(ctx context.Context, id string) (internalorders.Order, error) {
	s.lastID = id
	return s.order, s.err
}

func (s *stubOrdersService) Cancel(ctx context.Context, id string) (internalorders.Order, error) {
	return s.UpdateStatus(ctx, id, enums.OrderStatusCancelled)
}

func sampleOrder() internalorders.Order {
	return internalorders.Order{
		ID:     "ord_1",
		CafeID: "cafe-1",
		Lines: []internalorders.LineSnapshot{
			{ItemID: "espresso", Name: "Espresso", UnitPrice: money.MustParse("3.50"), Quantity: 2},
		},
		Subtotal:  money.MustParse("7.00"),
		Tax:       money.MustParse("0.70"),
		Total:     money.MustParse("7.70"),
		TaxRate:   decimal.RequireFromString("0.10"),
		Status:    enums.OrderStatusNew,
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func newRouter(svc *stubOrdersService) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders/{orderId}", Detail(svc, nil))
	r.Patch("/orders/{orderId}/status", UpdateStatus(svc, nil))
	r.Post("/orders/{orderId}/advance", Advance(svc, nil))
	r.Get("/cafes/{cafeId}/orders", ListByCafe(svc, nil))
	r.Get("/sessions/{sessionId}/orders", ListBySession(svc, nil))
	return r
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return envelope.Error.Code
}

func TestDetailReturnsDerivedFields(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/orders/ord_1", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body internalorders.OrderResponse
	decodeData(t, resp, &body)
	if body.ID != "ord_1" || body.ItemCount != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.NextStatus == nil || *body.NextStatus != "preparing" {
		t.Fatalf("expected next status preparing, got %v", body.NextStatus)
	}
	if body.Total != money.MustParse("7.70") {
		t.Fatalf("unexpected total %s", body.Total)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/orders/ord_missing", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestListByCafeParsesQuery(t *testing.T) {
	svc := &stubOrdersService{list: internalorders.ListResult{Orders: []internalorders.Order{sampleOrder()}, NextCursor: "abc"}}
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/cafes/cafe-1/orders?status=new,ready&limit=5&cursor=xyz", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastList.CafeID != "cafe-1" || svc.lastList.Params.Limit != 5 || svc.lastList.Params.Cursor != "xyz" {
		t.Fatalf("unexpected list input: %+v", svc.lastList)
	}
	if len(svc.lastList.Statuses) != 2 || svc.lastList.Statuses[1] != enums.OrderStatusReady {
		t.Fatalf("unexpected statuses: %v", svc.lastList.Statuses)
	}

	var body internalorders.OrderList
	decodeData(t, resp, &body)
	if len(body.Orders) != 1 || body.NextCursor != "abc" {
		t.Fatalf("unexpected list: %+v", body)
	}
}

func TestListByCafeRejectsBadInput(t *testing.T) {
	svc := &stubOrdersService{}
	for _, target := range []string{
		"/cafes/cafe-1/orders?status=shipped",
		"/cafes/cafe-1/orders?limit=0",
		"/cafes/cafe-1/orders?limit=abc",
	} {
		resp := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestListBySessionParsesScope(t *testing.T) {
	svc := &stubOrdersService{list: internalorders.ListResult{Orders: []internalorders.Order{sampleOrder()}}}
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/sess-1/orders?scope=past&limit=3", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSess.SessionID != "sess-1" || svc.lastSess.Scope != internalorders.HistoryScopePast || svc.lastSess.Params.Limit != 3 {
		t.Fatalf("unexpected session input: %+v", svc.lastSess)
	}
	var body internalorders.OrderList
	decodeData(t, resp, &body)
	if len(body.Orders) != 1 {
		t.Fatalf("unexpected list: %+v", body)
	}

	resp = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/sess-1/orders?scope=soon", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/ord_1/status", strings.NewReader(`{"status":"cancelled"}`))
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastState != enums.OrderStatusCancelled || svc.lastID != "ord_1" {
		t.Fatalf("unexpected call: %s %s", svc.lastID, svc.lastState)
	}
	var body internalorders.OrderResponse
	decodeData(t, resp, &body)
	if body.NextStatus != nil {
		t.Fatalf("cancelled orders have no next status, got %v", *body.NextStatus)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/ord_1/status", strings.NewReader(`{"status":"shipped"}`))
	newRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastID != "" {
		t.Fatal("service should not be called")
	}
}

func TestAdvanceIllegalTransition(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeIllegalTransition, "order has no next status")}
	resp := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/orders/ord_1/advance", nil))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeIllegalTransition) {
		t.Fatalf("unexpected code %s", code)
	}
}
