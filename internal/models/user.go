package models

import "strings"

// User is a person who requests, works on or comments on tickets.
type User struct {
	BaseModel

	FirstName string `gorm:"type:varchar(128)" json:"first_name"`
	LastName  string `gorm:"type:varchar(128)" json:"last_name"`
	Email     string `gorm:"type:varchar(320);uniqueIndex" json:"email"`
}

// DisplayName joins the name parts, falling back to the email address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		return email
	}
	return "Unknown user"
}
