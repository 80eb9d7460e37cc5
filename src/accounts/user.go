// Package accounts stores registered users and issues tokens for them.
package accounts

import (
	"time"

	"github.com/orchestra-mcp/chat/src/types"
)

// User is a registered account. The username doubles as the identity id
// bound to the account's connections.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	Role         string `gorm:"not null;type:text;default:member"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Principal returns the principal a connection authenticated as u gets.
func (u *User) Principal() types.Principal {
	return types.Principal{
		IdentityID:  u.Username,
		DisplayName: u.Username,
		Role:        types.ParseRole(u.Role),
	}
}

// View is the public shape of a user.
type View struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
}

// View returns u without its password hash.
func (u *User) View() View {
	return View{ID: u.ID, Username: u.Username, Role: types.ParseRole(u.Role)}
}
