package models

import (
	"encoding/json"

	"github.com/athebyme/emag-console/pkg/models"
	"github.com/shopspring/decimal"
)

// Статусы заказов eMAG
const (
	OrderStatusCanceled   = 0
	OrderStatusNew        = 1
	OrderStatusInProgress = 2
	// OrderStatusPrepared - заказ подготовлен и готов к генерации AWB
	OrderStatusPrepared  = 3
	OrderStatusFinalized = 4
	OrderStatusReturned  = 5
)

// Order представляет заказ маркетплейса в том виде, в каком его отдает бэкенд
type Order struct {
	ID              int64              `json:"id"`
	EmagOrderID     int64              `json:"emag_order_id"`
	Status          int                `json:"status"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	CustomerPhone   string             `json:"customer_phone,omitempty"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Currency        string             `json:"currency"`
	AWBNumber       *string            `json:"awb_number,omitempty"`
	CourierName     *string            `json:"courier_name,omitempty"`
	AccountType     models.AccountType `json:"account_type"`
	Products        json.RawMessage    `json:"products,omitempty"`
	ShippingAddress json.RawMessage    `json:"shipping_address,omitempty"`
}

// HasAWB сообщает, выпущена ли для заказа накладная
func (o *Order) HasAWB() bool {
	return o.AWBNumber != nil && *o.AWBNumber != ""
}

// ReadyForAWB - заказ подготовлен и еще не имеет накладной
func (o *Order) ReadyForAWB() bool {
	return o.Status == OrderStatusPrepared && !o.HasAWB()
}

// AWBStats - счетчики представления AWB
type AWBStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Generated int `json:"generated"`
	InTransit int `json:"in_transit"`
}

// CountAWBStats считает счетчики по наличию номера накладной.
// Заказ с накладной считается и выпущенным, и находящимся в пути
func CountAWBStats(orders []Order) AWBStats {
	stats := AWBStats{Total: len(orders)}
	for i := range orders {
		if orders[i].HasAWB() {
			stats.Generated++
			stats.InTransit++
		} else {
			stats.Pending++
		}
	}
	return stats
}

// CourierAccount - аккаунт курьерской службы, доступный для выбора
type CourierAccount struct {
	ID          int64  `json:"id"`
	AccountName string `json:"account_name"`
	CourierName string `json:"courier_name"`
	IsActive    bool   `json:"is_active"`
}

// AWBPackage описывает место отправления для генерации накладной
type AWBPackage struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// BulkAWBResult - итог массовой генерации, как его вернул бэкенд
type BulkAWBResult struct {
	SuccessCount int `json:"success_count"`
	FailedCount  int `json:"failed_count"`
}
