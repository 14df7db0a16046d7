package models

import (
	"time"

	"github.com/athebyme/emag-console/pkg/models"
	"github.com/shopspring/decimal"
)

// ProductRecord представляет продукт eMAG, как его отдает бэкенд интеграции
type ProductRecord struct {
	ID          string             `json:"id"`
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	AccountType models.AccountType `json:"account_type"`
	Price       decimal.Decimal    `json:"price"`
	Currency    string             `json:"currency"`
	Stock       int                `json:"stock_quantity"`
	IsActive    bool               `json:"is_active"`
	Status      string             `json:"status,omitempty"`
	LastSyncAt  *time.Time         `json:"last_synced_at,omitempty"`
}

// ProductKey - составной ключ для удаления дублей при слиянии выборок
type ProductKey struct {
	ID          string
	SKU         string
	AccountType models.AccountType
}

// Key возвращает составной ключ продукта
func (p *ProductRecord) Key() ProductKey {
	return ProductKey{ID: p.ID, SKU: p.SKU, AccountType: p.AccountType}
}

// MergeProducts объединяет несколько перекрывающихся выборок в одну без дублей.
// Порядок сохраняется по первому появлению ключа
func MergeProducts(batches ...[]ProductRecord) []ProductRecord {
	size := 0
	for _, b := range batches {
		size += len(b)
	}

	seen := make(map[ProductKey]struct{}, size)
	merged := make([]ProductRecord, 0, size)
	for _, batch := range batches {
		for _, p := range batch {
			key := p.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}
