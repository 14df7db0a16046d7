package models

import (
	"net/url"
	"strconv"

	"github.com/athebyme/emag-console/pkg/models"
)

// ProductQuery представляет параметры выборки продуктов и офферов у бэкенда
type ProductQuery struct {
	AccountType        models.AccountType `json:"account_type"`
	MaxPagesPerAccount int                `json:"max_pages_per_account,omitempty"`
	// IncludeInactive не передается для офферов
	IncludeInactive    *bool              `json:"include_inactive,omitempty"`
}

// ToValues преобразует ProductQuery в параметры query-строки
func (q *ProductQuery) ToValues() url.Values {
	values := url.Values{}

	if q.AccountType != "" {
		values.Set("account_type", string(q.AccountType))
	}

	if q.MaxPagesPerAccount > 0 {
		values.Set("max_pages_per_account", strconv.Itoa(q.MaxPagesPerAccount))
	}

	if q.IncludeInactive != nil {
		values.Set("include_inactive", strconv.FormatBool(*q.IncludeInactive))
	}

	return values
}
