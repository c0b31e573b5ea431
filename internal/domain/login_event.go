package domain

import "time"

// LoginEvent registra un inicio de sesión exitoso. Solo se agrega, nunca se edita.
type LoginEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty"`
}
