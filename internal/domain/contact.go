package domain

import "time"

// Contact is a person targeted by campaigns. Contacts exist independently of
// any single campaign; enrollment joins them to campaigns many-to-many.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Company   string    `json:"company" db:"company"`
	Title     string    `json:"title,omitempty" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
