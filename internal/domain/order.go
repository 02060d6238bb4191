package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// MaxRecentOrders: сколько последних заказов отдаёт листинг.
const MaxRecentOrders = 50

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Order: заявка покупателя на одно или несколько занятий.
type Order struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	// Items: непрозрачные ссылки на уроки (обычно id и количество), порядок сохраняется.
	Items     []json.RawMessage `json:"items"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ValidEmail проверяет email по простой маске local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate проверяет обязательные поля заказа и возвращает первую найденную ошибку.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if strings.TrimSpace(o.Phone) == "" {
		return NewValidationError("phone", "is required")
	}
	if strings.TrimSpace(o.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if !ValidEmail(strings.TrimSpace(o.Email)) {
		return NewValidationError("email", "has invalid format")
	}
	if len(o.Items) == 0 {
		return NewValidationError("items", "must contain at least one item")
	}
	for _, item := range o.Items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return NewValidationError("items", "must not contain empty entries")
		}
	}
	return nil
}
