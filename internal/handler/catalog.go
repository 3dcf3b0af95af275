package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ashevelev/shoppoints/internal/model"
	"github.com/ashevelev/shoppoints/internal/repository"
	"github.com/ashevelev/shoppoints/internal/validation"
)

func pageParams(r *http.Request) (skip, limit int64) {
	skip, _ = strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64)
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	return skip, limit
}

type productRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int64   `json:"stock"`
}

type productResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int64   `json:"stock"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: float64(p.PriceCents) / 100,
		Stock: p.Stock,
	}
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price < 0 || req.Stock < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), model.Product{
		Name:       req.Name,
		PriceCents: int64(math.Round(req.Price * 100)),
		Stock:      req.Stock,
	})
	if err != nil {
		h.logger.Error("create product error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toProductResponse(p))
}

// ListProducts возвращает страницу каталога товаров.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)

	products, err := h.service.ListProducts(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list products error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get product error", zap.Error(err), zap.Int64("productID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toProductResponse(p))
}

type productUpdateRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Stock *int64   `json:"stock"`
}

// UpdateProduct обновляет указанные поля товара.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req productUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	upd := repository.ProductUpdate{
		Name:  req.Name,
		Stock: req.Stock,
	}
	if req.Price != nil {
		if *req.Price < 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		cents := int64(math.Round(*req.Price * 100))
		upd.PriceCents = &cents
	}

	p, err := h.service.UpdateProduct(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update product error", zap.Error(err), zap.Int64("productID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct удаляет товар из каталога.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete product error", zap.Error(err), zap.Int64("productID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}

type billboardRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	TextColor       *string `json:"text_color"`
	BackgroundColor *string `json:"background_color"`
}

type billboardResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	TextColor       *string `json:"text_color"`
	BackgroundColor *string `json:"background_color"`
}

func toBillboardResponse(b *model.Billboard) billboardResponse {
	return billboardResponse{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		Image:           b.Image,
		TextColor:       b.TextColor,
		BackgroundColor: b.BackgroundColor,
	}
}

func validColors(colors ...*string) bool {
	for _, c := range colors {
		if c != nil && !validation.IsValidHexColor(*c) {
			return false
		}
	}
	return true
}

// CreateBillboard добавляет билборд.
func (h *Handler) CreateBillboard(w http.ResponseWriter, r *http.Request) {
	var req billboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validColors(req.TextColor, req.BackgroundColor) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	b, err := h.service.CreateBillboard(r.Context(), model.Billboard{
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.Image,
		TextColor:       req.TextColor,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		h.logger.Error("create billboard error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toBillboardResponse(b))
}

// ListBillboards возвращает страницу списка билбордов.
func (h *Handler) ListBillboards(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)

	billboards, err := h.service.ListBillboards(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list billboards error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]billboardResponse, 0, len(billboards))
	for i := range billboards {
		resp = append(resp, toBillboardResponse(&billboards[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetBillboard возвращает билборд по идентификатору.
func (h *Handler) GetBillboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "billboardID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	b, err := h.service.GetBillboard(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBillboardNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get billboard error", zap.Error(err), zap.Int64("billboardID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toBillboardResponse(b))
}

type billboardUpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	TextColor       *string `json:"text_color"`
	BackgroundColor *string `json:"background_color"`
}

// UpdateBillboard обновляет указанные поля билборда.
func (h *Handler) UpdateBillboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "billboardID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req billboardUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validColors(req.TextColor, req.BackgroundColor) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	b, err := h.service.UpdateBillboard(r.Context(), id, repository.BillboardUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.Image,
		TextColor:       req.TextColor,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrBillboardNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update billboard error", zap.Error(err), zap.Int64("billboardID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toBillboardResponse(b))
}

// DeleteBillboard удаляет билборд.
func (h *Handler) DeleteBillboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "billboardID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteBillboard(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrBillboardNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete billboard error", zap.Error(err), zap.Int64("billboardID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Billboard deleted successfully"})
}
