package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateProduct_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(productRequest{
		Name:  "sneakers",
		Price: 59.99,
		Stock: 3,
	})

	req := httptest.NewRequest(http.MethodPost, "/product", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp productResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 1 || resp.Name != "sneakers" || resp.Price != 59.99 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(productRequest{
		Name:  "sneakers",
		Price: -1,
	})

	req := httptest.NewRequest(http.MethodPost, "/product", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	r := h.SetupRouter("http://localhost:3000", nil)

	req := httptest.NewRequest(http.MethodGet, "/product/99", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestCreateBillboard_InvalidColor(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	color := "not-a-color"
	body, _ := json.Marshal(billboardRequest{
		Name:      "summer sale",
		TextColor: &color,
	})

	req := httptest.NewRequest(http.MethodPost, "/billboards", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateBillboard(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestCreateBillboard_Success(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	color := "#1A2B3C"
	body, _ := json.Marshal(billboardRequest{
		Name:            "summer sale",
		BackgroundColor: &color,
	})

	req := httptest.NewRequest(http.MethodPost, "/billboards", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateBillboard(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp billboardResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 1 || resp.Name != "summer sale" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.BackgroundColor == nil || *resp.BackgroundColor != "#1A2B3C" {
		t.Fatalf("background_color not preserved: %+v", resp)
	}
}
