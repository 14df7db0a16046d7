package models

import "fmt"

// AccountType - раздел интеграции: у продавца два профиля eMAG на одной интеграции
type AccountType string

const (
	AccountMain AccountType = "main"
	AccountFBE  AccountType = "fbe"
	// AccountBoth используется только в запросах, охватывающих оба профиля
	AccountBoth AccountType = "both"
)

// Accounts перечисляет реальные профили (без агрегирующего both)
var Accounts = []AccountType{AccountMain, AccountFBE}

// ParseAccountType разбирает тип аккаунта из строки запроса или конфигурации
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountMain, AccountFBE, AccountBoth:
		return AccountType(s), nil
	case "":
		return AccountMain, nil
	default:
		return "", fmt.Errorf("неизвестный тип аккаунта: %q", s)
	}
}

func (a AccountType) String() string {
	return string(a)
}
