// Package entity defines request and response bodies of the HTTP API.
package entity

import (
	"strings"
	"time"
)

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj,omitempty"`
}

// LoginForm carries the credentials of POST /login. At least one of
// Username, Email or Phone must be set.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Normalize trims the identifier fields in place.
func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
}

// HasIdentifier reports whether any lookup field was supplied.
func (f *LoginForm) HasIdentifier() bool {
	return f.Username != "" || f.Email != "" || f.Phone != ""
}

// Token is the body returned by a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Page holds skip/limit query parameters.
type Page struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

type UserCreate struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone" binding:"max=32"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// UserUpdate holds the fields PUT /users/{id} may change; nil leaves the
// stored value untouched.
type UserUpdate struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

type MaterialCreate struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=64"`
	Quantity    *int   `json:"quantity" binding:"omitempty,min=0"`
}

type MaterialUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Category    *string `json:"category" binding:"omitempty,max=64"`
	Quantity    *int    `json:"quantity" binding:"omitempty,min=0"`
}

type LoanCreate struct {
	UserId     int        `json:"userId" binding:"required,min=1"`
	MaterialId int        `json:"materialId" binding:"required,min=1"`
	LoanedAt   *time.Time `json:"loanedAt"`
	DueAt      time.Time  `json:"dueAt" binding:"required"`
}

type LoanUpdate struct {
	DueAt      *time.Time `json:"dueAt"`
	ReturnedAt *time.Time `json:"returnedAt"`
}

// LoanFilter narrows GET /loans.
type LoanFilter struct {
	Page
	UserId     int    `form:"user_id" binding:"min=0"`
	MaterialId int    `form:"material_id" binding:"min=0"`
	Status     string `form:"status" binding:"omitempty,oneof=active returned overdue"`
}
