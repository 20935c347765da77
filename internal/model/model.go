// Package model defines the entities exchanged with the studio backend.
package model

import (
	"time"
)

// Project status values accepted by the backend.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Media file types.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Role values for UserRole.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// User is an account able to sign in to the admin panel.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Profile carries the public details of the signed-in user.
type Profile struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Location    string            `json:"location,omitempty"`
	Website     string            `json:"website,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// UserRole binds a role to a user.
type UserRole struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a portfolio entry.
type Project struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug,omitempty"`
	Category     string         `json:"category"`
	Description  string         `json:"description,omitempty"`
	Partner      string         `json:"partner,omitempty"`
	Genre        string         `json:"genre,omitempty"`
	Format       string         `json:"format,omitempty"`
	Year         int            `json:"year,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"` // reference returned by the backend
	Featured     Flag           `json:"featured,omitempty"`
	DisplayOrder int            `json:"display_order"`
	Status       string         `json:"status"`
	IsPublished  Flag           `json:"is_published"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Media        []ProjectMedia `json:"media,omitempty"`
}

// ProjectMedia is an image or video attached to a project.
type ProjectMedia struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	FileType     string    `json:"file_type"`
	FileURL      string    `json:"file_url"`
	URL          string    `json:"url,omitempty"` // set by some upload responses
	Title        string    `json:"title,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reference returns the stored file reference of the media item.
func (m ProjectMedia) Reference() string {
	if m.FileURL != "" {
		return m.FileURL
	}
	return m.URL
}

// Message is a contact-form submission.
type Message struct {
	ID          int64      `json:"id"`
	SenderName  string     `json:"sender_name"`
	SenderEmail string     `json:"sender_email"`
	Phone       string     `json:"phone,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Content     string     `json:"content"`
	IsRead      Flag       `json:"is_read"`
	IsStarred   Flag       `json:"is_starred"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SocialLinks groups the studio's social network URLs.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Vimeo     string `json:"vimeo,omitempty"`
	Behance   string `json:"behance,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// StudioSettings is the singleton studio configuration record.
type StudioSettings struct {
	ID                 int64        `json:"id"`
	StudioName         string       `json:"studio_name"`
	Tagline            string       `json:"tagline,omitempty"`
	Description        string       `json:"description,omitempty"`
	Bio                string       `json:"bio,omitempty"`
	ContactEmail       string       `json:"contact_email,omitempty"`
	Phone              string       `json:"phone,omitempty"`
	Address            string       `json:"address,omitempty"`
	LogoURL            string       `json:"logo_url,omitempty"`
	Instagram          string       `json:"instagram,omitempty"`
	YouTube            string       `json:"youtube,omitempty"`
	Vimeo              string       `json:"vimeo,omitempty"`
	Behance            string       `json:"behance,omitempty"`
	LinkedIn           string       `json:"linkedin,omitempty"`
	SocialLinks        *SocialLinks `json:"social_links,omitempty"`
	EmailNotifications Flag         `json:"email_notifications"`
	NewMessageAlert    Flag         `json:"new_message_alert"`
	WeeklyReport       Flag         `json:"weekly_report"`
	SEOTitle           string       `json:"seo_title,omitempty"`
	SEODescription     string       `json:"seo_description,omitempty"`
	SEOKeywords        []string     `json:"seo_keywords,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Page is the backend pagination envelope.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}
