package models

import (
	"time"
)

type User struct {
	Email              string     `json:"email" gorm:"primaryKey"`
	Password           string     `json:"-" gorm:"not null"`
	Name               string     `json:"name" gorm:"not null"`
	Plan               Plan       `json:"plan" gorm:"type:varchar(32);not null;default:'free'"`
	AICredits          int        `json:"credits" gorm:"column:ai_credits;not null;default:100"`
	ImagesGenerated    int        `json:"images_generated" gorm:"not null;default:0"`
	VideosGenerated    int        `json:"videos_generated" gorm:"not null;default:0"`
	BackgroundsRemoved int        `json:"backgrounds_removed" gorm:"not null;default:0"`
	IsActive           bool       `json:"is_active" gorm:"not null;default:true"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UserUsage is the public view of the per-feature counters.
type UserUsage struct {
	Images      int `json:"images"`
	Videos      int `json:"videos"`
	Backgrounds int `json:"backgrounds"`
}

type UserProfile struct {
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Plan    Plan      `json:"plan"`
	Credits int       `json:"credits"`
	Usage   UserUsage `json:"usage"`
	Joined  time.Time `json:"joined"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		Email:   u.Email,
		Name:    u.Name,
		Plan:    u.Plan,
		Credits: u.AICredits,
		Usage: UserUsage{
			Images:      u.ImagesGenerated,
			Videos:      u.VideosGenerated,
			Backgrounds: u.BackgroundsRemoved,
		},
		Joined: u.CreatedAt,
	}
}
