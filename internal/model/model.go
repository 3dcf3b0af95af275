// Package model содержит доменные сущности сервиса shoppoints.
package model

import "time"

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Points       int64
	Role         string
	CreatedAt    time.Time
}

// Product описывает товар каталога. Цена хранится в копейках.
type Product struct {
	ID         int64
	Name       string
	PriceCents int64
	Stock      int64
}

// Billboard описывает рекламный баннер витрины. Все поля, кроме имени, опциональны.
type Billboard struct {
	ID              int64
	Name            string
	Description     *string
	Image           *string
	TextColor       *string
	BackgroundColor *string
}

// Order описывает заказ пользователя на один товар.
type Order struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int64
	CreatedAt time.Time
}

// OrderResult возвращается при создании заказа: стоимость и начисленные
// баллы вычисляются один раз в момент создания и отдельно не хранятся.
type OrderResult struct {
	OrderID     int64
	UserID      int64
	ProductID   int64
	ValueCents  int64
	Quantity    int64
	PointsAdded int64
}

// PointsAward возвращает количество баллов за заказ указанной стоимости:
// 25% от суммы с отбрасыванием дробной части. Стоимость в копейках,
// поэтому целочисленное деление на 400 совпадает с floor(value * 0.25)
// для суммы в рублях.
func PointsAward(valueCents int64) int64 {
	return valueCents / 400
}
