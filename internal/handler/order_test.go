package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashevelev/shoppoints/internal/model"
	"github.com/ashevelev/shoppoints/internal/repository"
)

func TestCreateOrder_Success(t *testing.T) {
	svc := &stubService{
		orderResult: &model.OrderResult{
			OrderID:     10,
			UserID:      1,
			ProductID:   2,
			ValueCents:  2000,
			Quantity:    2,
			PointsAdded: 5,
		},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		UserID:    1,
		ProductID: 2,
		Quantity:  2,
	})

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateOrder(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp createOrderResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OrderID != 10 {
		t.Fatalf("order_id = %d, want 10", resp.OrderID)
	}
	if resp.OrderPrice != 20.0 {
		t.Fatalf("order_price = %v, want 20.0", resp.OrderPrice)
	}
	if resp.PointsAdded != 5 {
		t.Fatalf("points_added = %d, want 5", resp.PointsAdded)
	}
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	svc := &stubService{
		orderErr: repository.ErrUserNotFound,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		UserID:    999,
		ProductID: 2,
		Quantity:  1,
	})

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateOrder(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	svc := &stubService{
		orderErr: repository.ErrProductNotFound,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		UserID:    1,
		ProductID: 999,
		Quantity:  1,
	})

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateOrder(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestCreateOrder_BadBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	h.CreateOrder(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestListOrders_JSONResponse(t *testing.T) {
	svc := &stubService{
		ordersResp: []model.Order{
			{ID: 1, UserID: 2, ProductID: 3, Quantity: 4},
		},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	rec := httptest.NewRecorder()

	h.ListOrders(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp []orderResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].OrderID != 1 || resp[0].Quantity != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDeleteOrder_NotFound(t *testing.T) {
	svc := &stubService{
		ordersErr: repository.ErrOrderNotFound,
	}
	h := newTestHandler(t, svc)

	r := h.SetupRouter("http://localhost:3000", nil)

	req := httptest.NewRequest(http.MethodDelete, "/order/99", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}
