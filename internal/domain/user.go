package domain

import (
	"strings"
	"time"
)

// User: покупатель, зарегистрированный через /register.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile: публичная часть пользователя, пароль сюда не попадает.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile возвращает данные, которые можно отдавать клиенту.
func (u User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email}
}

// Registration: входные данные регистрации.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate проверяет, что все поля регистрации заполнены.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if r.Password == "" {
		return NewValidationError("password", "is required")
	}
	return nil
}

// Credentials: входные данные логина.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate проверяет, что email и пароль переданы.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if c.Password == "" {
		return NewValidationError("password", "is required")
	}
	return nil
}
