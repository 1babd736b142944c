package models

import (
	"time"
)

// AdminRank orders administrative privilege: OWNER > ADMIN > MODERATOR.
type AdminRank string

const (
	RankOwner     AdminRank = "OWNER"
	RankAdmin     AdminRank = "ADMIN"
	RankModerator AdminRank = "MODERATOR"
)

var rankOrder = map[AdminRank]int{
	RankModerator: 1,
	RankAdmin:     2,
	RankOwner:     3,
}

// AtLeast reports whether r grants at least the privilege of min.
func (r AdminRank) AtLeast(min AdminRank) bool {
	return rankOrder[r] >= rankOrder[min]
}

// AdminAccount is a control-panel login. Passwords are stored in plaintext
// and compared byte for byte.
type AdminAccount struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	Rank      AdminRank `json:"rank" gorm:"default:'ADMIN'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
