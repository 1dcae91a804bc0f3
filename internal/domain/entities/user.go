package entities

import "time"

// User represents a bot user taking tests.
type User struct {
	ID        int64 // Telegram user ID
	ChatID    int64
	FirstName string
	Username  string
	CreatedAt time.Time
}

func NewUser(id, chatID int64, firstName, username string) *User {
	return &User{
		ID:        id,
		ChatID:    chatID,
		FirstName: firstName,
		Username:  username,
		CreatedAt: time.Now(),
	}
}

// DisplayName returns the name shown in attempt listings.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}
