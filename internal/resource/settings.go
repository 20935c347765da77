package resource

import (
	"context"
	"net/http"

	"github.com/softseven/studio-admin/internal/model"
)

// Settings wraps the /studio-settings singleton.
type Settings struct{ api Doer }

// Get returns the studio settings.
func (s *Settings) Get(ctx context.Context) (model.StudioSettings, error) {
	var out model.StudioSettings
	err := s.api.Do(ctx, http.MethodGet, "/studio-settings", nil, nil, &out)
	return out, err
}

// Save creates or updates the settings; only non-nil fields are sent.
func (s *Settings) Save(ctx context.Context, req model.SaveStudioSettingsRequest) (model.StudioSettings, error) {
	var out model.StudioSettings
	err := s.api.Do(ctx, http.MethodPost, "/studio-settings", nil, req, &out)
	return out, err
}
