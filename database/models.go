package database

import "time"

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Valid reports whether i is one of high, medium or low.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash string     `json:"-"`
	BirthDate    *time.Time `json:"birthDate"`
	Gender       string     `json:"gender"`
	Theme        string     `json:"theme"`
	Avatar       string     `json:"avatar"`
	GoogleID     *string    `json:"-"`
	ResetToken   *string    `json:"-"`
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasPassword is false for accounts created through Google sign-in.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

type Board struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Favorite    bool      `json:"favorite"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Column struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Task struct {
	ID           int64      `json:"id"`
	ColumnID     int64      `json:"column"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Importance   Importance `json:"importance"`
	Order        int        `json:"order"`
	AIImportance Importance `json:"aiImportance,omitempty"`
	DueDate      *time.Time `json:"dueDate"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
