// Package handler содержит HTTP-обработчики API сервиса shoppoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ashevelev/shoppoints/internal/auth"
	"github.com/ashevelev/shoppoints/internal/middleware"
	"github.com/ashevelev/shoppoints/internal/model"
	"github.com/ashevelev/shoppoints/internal/repository"
	"github.com/ashevelev/shoppoints/internal/service"
	"github.com/ashevelev/shoppoints/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, password string) (int64, error)
	AuthenticateUser(ctx context.Context, username, password string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsersWithOrders(ctx context.Context) ([]service.UserWithOrders, error)
	DeleteUser(ctx context.Context, id int64) error
	DeleteAllUsers(ctx context.Context) error

	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, skip, limit int64) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd repository.ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateBillboard(ctx context.Context, b model.Billboard) (*model.Billboard, error)
	GetBillboard(ctx context.Context, id int64) (*model.Billboard, error)
	ListBillboards(ctx context.Context, skip, limit int64) ([]model.Billboard, error)
	UpdateBillboard(ctx context.Context, id int64, upd repository.BillboardUpdate) (*model.Billboard, error)
	DeleteBillboard(ctx context.Context, id int64) error

	PlaceOrder(ctx context.Context, userID, productID, quantity int64) (*model.OrderResult, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	AddPoints(ctx context.Context, userID, points int64) (int64, error)
	RedeemPoints(ctx context.Context, userID, points int64) (int64, error)
	GetPoints(ctx context.Context, userID int64) (int64, error)

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Handler реализует HTTP-обработчики API сервиса shoppoints.
type Handler struct {
	service        Service
	logger         *zap.Logger
	tokens         *auth.TokenManager
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, tokens *auth.TokenManager, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		tokens:         tokens,
		authMiddleware: authMW,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type messageResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidUsername(req.Username) || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err := h.service.RegisterUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully"})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token выполняет аутентификацию пользователя и выпускает токен доступа.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

type currentUserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

// CurrentUser возвращает данные пользователя, которому принадлежит токен.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get current user error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, currentUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Points:   user.Points,
	})
}

// VerifyToken проверяет токен из пути запроса: подпись, срок действия
// и существование пользователя.
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Parse(chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	if _, err := h.service.GetUserByUsername(r.Context(), claims.Subject); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("verify token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Token is valid"})
}

// Logout отзывает токен текущего запроса до истечения его срока действия.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := middleware.BearerToken(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Parse(tokenString)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	err = h.service.RevokeToken(r.Context(), claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		if errors.Is(err, repository.ErrTokenRevoked) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.logger.Error("logout error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "User successfully logged out"})
}

type userResponse struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Points   int64           `json:"points"`
	Orders   []orderResponse `json:"orders"`
}

// ListUsers возвращает всех пользователей вместе с их заказами.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsersWithOrders(r.Context())
	if err != nil {
		h.logger.Error("list users error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		orders := make([]orderResponse, 0, len(u.Orders))
		for _, o := range u.Orders {
			orders = append(orders, orderResponse{
				OrderID:   o.ID,
				UserID:    o.UserID,
				ProductID: o.ProductID,
				Quantity:  o.Quantity,
			})
		}
		resp = append(resp, userResponse{
			ID:       u.User.ID,
			Username: u.User.Username,
			Points:   u.User.Points,
			Orders:   orders,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteUser удаляет пользователя вместе с его заказами.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete user error", zap.Error(err), zap.Int64("userID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "User successfully deleted"})
}

// DeleteAllUsers удаляет всех пользователей.
func (h *Handler) DeleteAllUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAllUsers(r.Context()); err != nil {
		h.logger.Error("delete all users error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, messageResponse{Message: "All users have been deleted"})
}
