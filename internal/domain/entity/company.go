package entity

import "time"

// Company is a tenant of the system
type Company struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// User belongs to exactly one company
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the verified caller of a request
type Identity struct {
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID int64  `json:"company_id"`
}
