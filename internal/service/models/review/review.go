package review

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a menu item.
type Review struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	MenuItemID int64     `json:"menuItemId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}
