package utils

import (
	"net/url"
	"strconv"
)

// Pagination описывает страничный запрос к бэкенду и ответ с его метаданными
type Pagination struct {
	Page         int   `json:"page"`           // Номер страницы (начиная с 1)
	ItemsPerPage int   `json:"items_per_page"` // Размер страницы
	TotalItems   int64 `json:"total_items"`    // Общее количество элементов
	TotalPages   int   `json:"total_pages"`    // Общее количество страниц
	HasNext      bool  `json:"has_next"`
}

// NewPagination создает Pagination, приводя параметры к допустимым значениям.
// maxPerPage ограничивает размер страницы сверху, 0 - без ограничения
func NewPagination(page, itemsPerPage, maxPerPage int) *Pagination {
	if page < 1 {
		page = 1
	}

	if itemsPerPage < 1 {
		itemsPerPage = 10
	}
	if maxPerPage > 0 && itemsPerPage > maxPerPage {
		itemsPerPage = maxPerPage
	}

	return &Pagination{
		Page:         page,
		ItemsPerPage: itemsPerPage,
	}
}

// SetTotal устанавливает общее количество элементов и пересчитывает зависимые поля
func (p *Pagination) SetTotal(totalItems int64) {
	p.TotalItems = totalItems
	p.TotalPages = int((totalItems + int64(p.ItemsPerPage) - 1) / int64(p.ItemsPerPage))
	p.HasNext = p.Page < p.TotalPages
}

// Apply добавляет параметры страницы в query-строку запроса
func (p *Pagination) Apply(q url.Values) {
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("items_per_page", strconv.Itoa(p.ItemsPerPage))
}
