package hooks

import (
	"context"

	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/query"
)

// StudioSettings reads the settings singleton.
func (h *Hooks) StudioSettings(ctx context.Context) (model.StudioSettings, error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyStudioSettings), h.api.Settings.Get)
}

// SaveStudioSettings saves the given fields.
func (h *Hooks) SaveStudioSettings(ctx context.Context, req model.SaveStudioSettingsRequest) (model.StudioSettings, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: []query.Key{query.Resource(KeyStudioSettings)},
		Success:    "Settings saved",
		Failure:    "Could not save settings",
	}, func(ctx context.Context) (model.StudioSettings, error) {
		return h.api.Settings.Save(ctx, req)
	})
}
