package model

import (
	"io"
	"net/url"
	"strconv"
)

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// PageParams selects a page of a collection. Zero values are not sent.
type PageParams struct {
	Page    int
	PerPage int
}

// Values encodes the params as a query string.
func (p PageParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return v
}

// MessageParams lists messages with optional server-side filters.
type MessageParams struct {
	PageParams
	IsRead    *bool
	IsStarred *bool
}

// Values encodes the params as a query string.
func (p MessageParams) Values() url.Values {
	v := p.PageParams.Values()
	if p.IsRead != nil {
		v.Set("is_read", strconv.FormatBool(*p.IsRead))
	}
	if p.IsStarred != nil {
		v.Set("is_starred", strconv.FormatBool(*p.IsStarred))
	}
	return v
}

// Upload is a file submitted in a multipart request.
type Upload struct {
	Filename    string
	ContentType string // detected from the extension when empty
	Body        io.Reader
}

// CreateProjectRequest is submitted as multipart together with a thumbnail.
type CreateProjectRequest struct {
	Title       string
	Category    string
	Status      string
	Partner     string
	Genre       string
	Format      string
	Description string
	IsPublished *int
	Thumbnail   *Upload
}

// UpdateProjectRequest is a partial update; nil fields are not sent.
type UpdateProjectRequest struct {
	Title        *string `json:"title,omitempty"`
	Category     *string `json:"category,omitempty"`
	Description  *string `json:"description,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Partner      *string `json:"partner,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	Format       *string `json:"format,omitempty"`
	Year         *int    `json:"year,omitempty"`
	Featured     *bool   `json:"featured,omitempty"`
	Status       *string `json:"status,omitempty"`
	IsPublished  *int    `json:"is_published,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// OrderItem is one entry of a reorder request.
type OrderItem struct {
	ID           int64 `json:"id"`
	DisplayOrder int   `json:"display_order"`
}

// MediaMeta is optional metadata sent alongside a media upload.
type MediaMeta struct {
	Title       string
	Description string
}

// UpdateMediaRequest is a partial update of a media item.
type UpdateMediaRequest struct {
	Title        *string `json:"title,omitempty"`
	Caption      *string `json:"caption,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// CreateMessageRequest is the public contact-form payload.
type CreateMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// UpdateMessageRequest is a partial update; nil fields are not sent.
type UpdateMessageRequest struct {
	IsRead    *bool   `json:"is_read,omitempty"`
	IsStarred *bool   `json:"is_starred,omitempty"`
	RepliedAt *string `json:"replied_at,omitempty"`
}

// SaveStudioSettingsRequest is a partial settings payload for POST /studio-settings.
type SaveStudioSettingsRequest struct {
	StudioName         *string      `json:"studio_name,omitempty"`
	Tagline            *string      `json:"tagline,omitempty"`
	Description        *string      `json:"description,omitempty"`
	Bio                *string      `json:"bio,omitempty"`
	ContactEmail       *string      `json:"contact_email,omitempty"`
	Phone              *string      `json:"phone,omitempty"`
	Address            *string      `json:"address,omitempty"`
	Instagram          *string      `json:"instagram,omitempty"`
	YouTube            *string      `json:"youtube,omitempty"`
	Vimeo              *string      `json:"vimeo,omitempty"`
	Behance            *string      `json:"behance,omitempty"`
	LinkedIn           *string      `json:"linkedin,omitempty"`
	SocialLinks        *SocialLinks `json:"social_links,omitempty"`
	EmailNotifications *bool        `json:"email_notifications,omitempty"`
	NewMessageAlert    *bool        `json:"new_message_alert,omitempty"`
	WeeklyReport       *bool        `json:"weekly_report,omitempty"`
	SEOTitle           *string      `json:"seo_title,omitempty"`
	SEODescription     *string      `json:"seo_description,omitempty"`
	SEOKeywords        []string     `json:"seo_keywords,omitempty"`
}

// CreateUserRequest registers a new admin user.
type CreateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdateUserRequest is a partial user update.
type UpdateUserRequest struct {
	Name                 *string `json:"name,omitempty"`
	Email                *string `json:"email,omitempty"`
	Password             *string `json:"password,omitempty"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
}

// CreateUserRoleRequest assigns a role.
type CreateUserRoleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// UpdateUserRoleRequest changes a role.
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

// ProfileRequest creates or partially updates the profile.
type ProfileRequest struct {
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	Phone       *string           `json:"phone,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Website     *string           `json:"website,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

// Ptr returns a pointer to v; handy for partial update literals.
func Ptr[T any](v T) *T { return &v }
