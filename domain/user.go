package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultAvatar = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User is owned by the authentication collaborator. The realtime core only
// ever sees its UserID.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) UserID() UserID {
	return UserID(u.ID.String())
}
