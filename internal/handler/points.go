package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ashevelev/shoppoints/internal/repository"
)

type pointsRequest struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}

type pointsResponse struct {
	UserID  int64  `json:"user_id"`
	Points  int64  `json:"points"`
	Message string `json:"message"`
}

// AddPoints начисляет баллы пользователю.
func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	balance, err := h.service.AddPoints(r.Context(), req.UserID, req.Points)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("add points error", zap.Error(err), zap.Int64("userID", req.UserID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, pointsResponse{
		UserID:  req.UserID,
		Points:  balance,
		Message: "Points added successfully",
	})
}

// RedeemPoints списывает баллы пользователя. Баланс не может уйти в минус:
// при нехватке баллов списание отклоняется целиком.
func (h *Handler) RedeemPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Points <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	balance, err := h.service.RedeemPoints(r.Context(), req.UserID, req.Points)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		if errors.Is(err, repository.ErrInsufficientPoints) {
			http.Error(w, "Not enough points", http.StatusBadRequest)
			return
		}
		h.logger.Error("redeem points error", zap.Error(err), zap.Int64("userID", req.UserID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, pointsResponse{
		UserID:  req.UserID,
		Points:  balance,
		Message: "Points redeemed successfully",
	})
}

// GetPoints возвращает текущий баланс баллов пользователя.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	balance, err := h.service.GetPoints(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get points error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, pointsResponse{
		UserID:  userID,
		Points:  balance,
		Message: "User points retrieved successfully",
	})
}
