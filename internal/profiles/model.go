package profiles

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("profile not found")

// Notifications holds the user's notification preferences.
type Notifications struct {
	EmailNotifications bool `json:"emailNotifications"`
	WeeklyReports      bool `json:"weeklyReports"`
	AITips             bool `json:"aiTips"`
}

// DefaultNotifications applies to users who never saved a profile.
func DefaultNotifications() Notifications {
	return Notifications{EmailNotifications: true, WeeklyReports: true, AITips: false}
}

// Profile is the app-owned part of a user; identity stays with the auth provider.
type Profile struct {
	UserID        string        `json:"userId"`
	Email         string        `json:"email"`
	FullName      string        `json:"fullName"`
	JobTitle      string        `json:"jobTitle"`
	Notifications Notifications `json:"notifications"`
	CreatedAt     time.Time     `json:"-"`
	UpdatedAt     time.Time     `json:"-"`
}
