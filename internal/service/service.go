// Package service реализует бизнес-логику сервиса shoppoints.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ashevelev/shoppoints/internal/model"
	"github.com/ashevelev/shoppoints/internal/repository"
)

// ErrInvalidCredentials возвращается при неверной паре имя/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, username string, passwordHash []byte) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	DeleteAllUsers(ctx context.Context) error

	CreateProduct(ctx context.Context, p model.Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, skip, limit int64) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd repository.ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateBillboard(ctx context.Context, b model.Billboard) (int64, error)
	GetBillboard(ctx context.Context, id int64) (*model.Billboard, error)
	ListBillboards(ctx context.Context, skip, limit int64) ([]model.Billboard, error)
	UpdateBillboard(ctx context.Context, id int64, upd repository.BillboardUpdate) (*model.Billboard, error)
	DeleteBillboard(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, userID, productID, quantity int64) (*model.OrderResult, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	AddPoints(ctx context.Context, userID, points int64) (int64, error)
	RedeemPoints(ctx context.Context, userID, points int64) (int64, error)
	GetPoints(ctx context.Context, userID int64) (int64, error)

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Service содержит бизнес-логику сервиса shoppoints.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя с bcrypt-хэшем пароля.
func (s *Service) RegisterUser(ctx context.Context, username, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateUser(ctx, username, hashed)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет имя и пароль пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UserWithOrders объединяет пользователя со списком его заказов.
type UserWithOrders struct {
	User   model.User
	Orders []model.Order
}

// ListUsersWithOrders возвращает всех пользователей вместе с их заказами.
func (s *Service) ListUsersWithOrders(ctx context.Context) ([]UserWithOrders, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64][]model.Order, len(users))
	for _, o := range orders {
		byUser[o.UserID] = append(byUser[o.UserID], o)
	}

	res := make([]UserWithOrders, 0, len(users))
	for _, u := range users {
		res = append(res, UserWithOrders{
			User:   u,
			Orders: byUser[u.ID],
		})
	}

	return res, nil
}

// DeleteUser удаляет пользователя вместе с его заказами.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// DeleteAllUsers удаляет всех пользователей.
func (s *Service) DeleteAllUsers(ctx context.Context) error {
	return s.repo.DeleteAllUsers(ctx)
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts возвращает страницу каталога товаров.
func (s *Service) ListProducts(ctx context.Context, skip, limit int64) ([]model.Product, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListProducts(ctx, skip, limit)
}

// UpdateProduct обновляет указанные поля товара.
func (s *Service) UpdateProduct(ctx context.Context, id int64, upd repository.ProductUpdate) (*model.Product, error) {
	return s.repo.UpdateProduct(ctx, id, upd)
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

// CreateBillboard добавляет билборд.
func (s *Service) CreateBillboard(ctx context.Context, b model.Billboard) (*model.Billboard, error) {
	id, err := s.repo.CreateBillboard(ctx, b)
	if err != nil {
		return nil, err
	}
	b.ID = id
	return &b, nil
}

// GetBillboard возвращает билборд по идентификатору.
func (s *Service) GetBillboard(ctx context.Context, id int64) (*model.Billboard, error) {
	return s.repo.GetBillboard(ctx, id)
}

// ListBillboards возвращает страницу списка билбордов.
func (s *Service) ListBillboards(ctx context.Context, skip, limit int64) ([]model.Billboard, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListBillboards(ctx, skip, limit)
}

// UpdateBillboard обновляет указанные поля билборда.
func (s *Service) UpdateBillboard(ctx context.Context, id int64, upd repository.BillboardUpdate) (*model.Billboard, error) {
	return s.repo.UpdateBillboard(ctx, id, upd)
}

// DeleteBillboard удаляет билборд.
func (s *Service) DeleteBillboard(ctx context.Context, id int64) error {
	return s.repo.DeleteBillboard(ctx, id)
}

// PlaceOrder создаёт заказ и начисляет пользователю 25% его стоимости баллами.
// Количество по умолчанию равно единице.
func (s *Service) PlaceOrder(ctx context.Context, userID, productID, quantity int64) (*model.OrderResult, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, errors.New("order quantity must be positive")
	}
	return s.repo.CreateOrder(ctx, userID, productID, quantity)
}

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// DeleteOrder удаляет заказ. Начисленные баллы при этом не списываются.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.repo.DeleteOrder(ctx, id)
}

// AddPoints начисляет баллы пользователю и возвращает новый баланс.
func (s *Service) AddPoints(ctx context.Context, userID, points int64) (int64, error) {
	return s.repo.AddPoints(ctx, userID, points)
}

// RedeemPoints списывает баллы пользователя и возвращает новый баланс.
func (s *Service) RedeemPoints(ctx context.Context, userID, points int64) (int64, error) {
	if points <= 0 {
		return 0, errors.New("redeem sum must be positive")
	}
	return s.repo.RedeemPoints(ctx, userID, points)
}

// GetPoints возвращает текущий баланс баллов пользователя.
func (s *Service) GetPoints(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetPoints(ctx, userID)
}

// RevokeToken помещает токен в список отозванных до истечения его срока действия.
func (s *Service) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.repo.RevokeToken(ctx, jti, expiresAt)
}

// IsTokenRevoked проверяет, отозван ли токен.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.repo.IsTokenRevoked(ctx, jti)
}

// StartRevocationCleanup запускает фоновый процесс удаления просроченных
// записей из списка отозванных токенов.
func (s *Service) StartRevocationCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.repo.DeleteExpiredTokens(ctx, time.Now())
			}
		}
	}()
}
