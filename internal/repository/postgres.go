// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ashevelev/shoppoints/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже занятым именем.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrBillboardNotFound возвращается, если билборд не найден.
	ErrBillboardNotFound = errors.New("billboard not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInsufficientPoints возвращается при попытке списать больше баллов, чем есть на счёте.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrTokenRevoked возвращается при повторном отзыве уже отозванного токена.
	ErrTokenRevoked = errors.New("token already revoked")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя с нулевым балансом баллов.
func (r *PostgresRepository) CreateUser(ctx context.Context, username string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, points, role, created_at FROM users WHERE username = $1`,
		username,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Points, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, points, role, created_at FROM users WHERE id = $1`,
		id,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Points, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// ListUsers возвращает всех пользователей.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, password_hash, points, role, created_at FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Points, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// DeleteUser удаляет пользователя. Его заказы удаляются каскадно на уровне схемы.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteAllUsers удаляет всех пользователей вместе с их заказами.
func (r *PostgresRepository) DeleteAllUsers(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	return nil
}

// CreateProduct добавляет товар в каталог.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p model.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.PriceCents, p.Stock,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = $1`,
		id,
	)

	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// ListProducts возвращает страницу каталога товаров.
func (r *PostgresRepository) ListProducts(ctx context.Context, skip, limit int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, stock FROM products ORDER BY id OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// ProductUpdate описывает частичное обновление товара. Нулевые указатели
// оставляют соответствующие поля без изменений.
type ProductUpdate struct {
	Name       *string
	PriceCents *int64
	Stock      *int64
}

// UpdateProduct обновляет указанные поля товара и возвращает его новое состояние.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET name = COALESCE($2, name),
		     price = COALESCE($3, price),
		     stock = COALESCE($4, stock)
		 WHERE id = $1
		 RETURNING id, name, price, stock`,
		id, upd.Name, upd.PriceCents, upd.Stock,
	)

	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return &p, nil
}

// DeleteProduct удаляет товар из каталога.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateBillboard добавляет билборд.
func (r *PostgresRepository) CreateBillboard(ctx context.Context, b model.Billboard) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO billboards (name, description, image, text_color, background_color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		b.Name, b.Description, b.Image, b.TextColor, b.BackgroundColor,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create billboard: %w", err)
	}
	return id, nil
}

// GetBillboard возвращает билборд по идентификатору.
func (r *PostgresRepository) GetBillboard(ctx context.Context, id int64) (*model.Billboard, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, image, text_color, background_color
		 FROM billboards WHERE id = $1`,
		id,
	)

	var b model.Billboard
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Image, &b.TextColor, &b.BackgroundColor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillboardNotFound
		}
		return nil, fmt.Errorf("get billboard: %w", err)
	}

	return &b, nil
}

// ListBillboards возвращает страницу списка билбордов.
func (r *PostgresRepository) ListBillboards(ctx context.Context, skip, limit int64) ([]model.Billboard, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, image, text_color, background_color
		 FROM billboards ORDER BY id OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select billboards: %w", err)
	}
	defer rows.Close()

	var billboards []model.Billboard
	for rows.Next() {
		var b model.Billboard
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Image, &b.TextColor, &b.BackgroundColor); err != nil {
			return nil, fmt.Errorf("scan billboard: %w", err)
		}
		billboards = append(billboards, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return billboards, nil
}

// BillboardUpdate описывает частичное обновление билборда.
type BillboardUpdate struct {
	Name            *string
	Description     *string
	Image           *string
	TextColor       *string
	BackgroundColor *string
}

// UpdateBillboard обновляет указанные поля билборда и возвращает его новое состояние.
func (r *PostgresRepository) UpdateBillboard(ctx context.Context, id int64, upd BillboardUpdate) (*model.Billboard, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE billboards
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     image = COALESCE($4, image),
		     text_color = COALESCE($5, text_color),
		     background_color = COALESCE($6, background_color)
		 WHERE id = $1
		 RETURNING id, name, description, image, text_color, background_color`,
		id, upd.Name, upd.Description, upd.Image, upd.TextColor, upd.BackgroundColor,
	)

	var b model.Billboard
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Image, &b.TextColor, &b.BackgroundColor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillboardNotFound
		}
		return nil, fmt.Errorf("update billboard: %w", err)
	}

	return &b, nil
}

// DeleteBillboard удаляет билборд.
func (r *PostgresRepository) DeleteBillboard(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM billboards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete billboard: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrBillboardNotFound
	}
	return nil
}

// CreateOrder создаёт заказ и начисляет баллы за него в одной транзакции:
// либо фиксируются обе записи, либо ни одна. Строка пользователя блокируется,
// чтобы параллельные заказы не меняли баланс между чтением и записью.
func (r *PostgresRepository) CreateOrder(ctx context.Context, userID, productID, quantity int64) (*model.OrderResult, error) {
	var res *model.OrderResult

	err := r.withRetry(ctx, func() error {
		var txErr error
		res, txErr = r.createOrderTx(ctx, userID, productID, quantity)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *PostgresRepository) createOrderTx(ctx context.Context, userID, productID, quantity int64) (*model.OrderResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Проверки существования идут до любых изменений: при отсутствии
	// пользователя или товара заказ не создаётся.
	var dummy int
	err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user for update: %w", err)
	}

	var priceCents int64
	err = tx.QueryRow(ctx, `SELECT price FROM products WHERE id = $1`, productID).Scan(&priceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product price: %w", err)
	}

	var orderID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
		userID, productID, quantity,
	).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	valueCents := quantity * priceCents
	points := model.PointsAward(valueCents)

	_, err = tx.Exec(ctx,
		`UPDATE users SET points = points + $2 WHERE id = $1`,
		userID, points,
	)
	if err != nil {
		return nil, fmt.Errorf("credit points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.OrderResult{
		OrderID:     orderID,
		UserID:      userID,
		ProductID:   productID,
		ValueCents:  valueCents,
		Quantity:    quantity,
		PointsAdded: points,
	}, nil
}

// ListOrders возвращает все заказы.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, quantity, created_at FROM orders ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, product_id, quantity, created_at FROM orders WHERE id = $1`,
		id,
	)

	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

// DeleteOrder удаляет заказ. Начисленные за него баллы не списываются.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AddPoints начисляет баллы пользователю и возвращает новый баланс.
func (r *PostgresRepository) AddPoints(ctx context.Context, userID, points int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`,
		userID, points,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("add points: %w", err)
	}
	return balance, nil
}

// RedeemPoints списывает баллы одним условным обновлением: баланс уменьшается
// только если на счёте достаточно баллов, иначе остаётся прежним.
func (r *PostgresRepository) RedeemPoints(ctx context.Context, userID, points int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET points = points - $2 WHERE id = $1 AND points >= $2 RETURNING points`,
		userID, points,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("redeem points: %w", err)
	}

	// Обновление не затронуло строк: различаем отсутствие пользователя
	// и нехватку баллов.
	err = r.pool.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get points: %w", err)
	}

	return balance, ErrInsufficientPoints
}

// GetPoints возвращает текущий баланс баллов пользователя.
func (r *PostgresRepository) GetPoints(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get points: %w", err)
	}
	return balance, nil
}

// RevokeToken помещает идентификатор токена в список отозванных.
func (r *PostgresRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	cmdTag, err := r.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTokenRevoked
	}
	return nil
}

// IsTokenRevoked проверяет, отозван ли токен с указанным идентификатором.
func (r *PostgresRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var dummy int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM revoked_tokens WHERE jti = $1`, jti).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}

// DeleteExpiredTokens удаляет отозванные токены, срок действия которых истёк,
// и возвращает количество удалённых записей.
func (r *PostgresRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
