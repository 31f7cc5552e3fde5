// Package model defines the persisted entities of the lending API.
package model

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
)

// User is an account that can log in and own loans. Password always holds a
// bcrypt hash and is never serialized.
type User struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone     string    `json:"phone" gorm:"size:32;index"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Loans []Loan `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

// Material is an item that can be lent out.
type Material struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description"`
	Category    string    `json:"category" gorm:"size:64;index"`
	Quantity    int       `json:"quantity" gorm:"not null;default:1"`
	Available   bool      `json:"available" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Loans []Loan `json:"-" gorm:"foreignKey:MaterialId;constraint:OnDelete:CASCADE"`
}

// Loan records a material lent to a user.
type Loan struct {
	Id         int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int        `json:"userId" gorm:"not null;index"`
	MaterialId int        `json:"materialId" gorm:"not null;index"`
	LoanedAt   time.Time  `json:"loanedAt" gorm:"not null"`
	DueAt      time.Time  `json:"dueAt" gorm:"not null;index"`
	ReturnedAt *time.Time `json:"returnedAt"`
	Status     LoanStatus `json:"status" gorm:"size:16;not null;default:active;index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// IsOpen reports whether the material has not been returned yet.
func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}
