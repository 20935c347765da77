package admin

import (
	"context"
	"slices"
	"sync"

	"github.com/softseven/studio-admin/internal/model"
)

// SettingsForm edits the studio settings and saves only what changed.
type SettingsForm struct {
	h SettingsHooks

	mu     sync.Mutex
	loaded model.StudioSettings
	draft  model.StudioSettings
}

// NewSettingsForm returns an empty form.
func NewSettingsForm(h SettingsHooks) *SettingsForm { return &SettingsForm{h: h} }

// Load reads the settings into the form, dropping edits.
func (f *SettingsForm) Load(ctx context.Context) error {
	st, err := f.h.StudioSettings(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.loaded, f.draft = st, st
	f.mu.Unlock()
	return nil
}

// Edit applies fn to the draft.
func (f *SettingsForm) Edit(fn func(*model.StudioSettings)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.draft)
}

// Draft returns the edited settings.
func (f *SettingsForm) Draft() model.StudioSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Changes returns a request holding only the fields that differ from the
// loaded settings, and whether there is any.
func (f *SettingsForm) Changes() (model.SaveStudioSettingsRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return diffSettings(f.loaded, f.draft)
}

// Save sends the changed fields. With no changes nothing is sent.
func (f *SettingsForm) Save(ctx context.Context) (model.StudioSettings, error) {
	req, changed := f.Changes()
	if !changed {
		return f.Draft(), nil
	}
	st, err := f.h.SaveStudioSettings(ctx, req)
	if err != nil {
		return model.StudioSettings{}, err
	}
	f.mu.Lock()
	f.loaded, f.draft = st, st
	f.mu.Unlock()
	return st, nil
}

func diffSettings(old, cur model.StudioSettings) (model.SaveStudioSettingsRequest, bool) {
	var req model.SaveStudioSettingsRequest
	changed := false
	str := func(dst **string, a, b string) {
		if a != b {
			v := b
			*dst = &v
			changed = true
		}
	}
	flag := func(dst **bool, a, b model.Flag) {
		if a != b {
			v := bool(b)
			*dst = &v
			changed = true
		}
	}

	str(&req.StudioName, old.StudioName, cur.StudioName)
	str(&req.Tagline, old.Tagline, cur.Tagline)
	str(&req.Description, old.Description, cur.Description)
	str(&req.Bio, old.Bio, cur.Bio)
	str(&req.ContactEmail, old.ContactEmail, cur.ContactEmail)
	str(&req.Phone, old.Phone, cur.Phone)
	str(&req.Address, old.Address, cur.Address)
	str(&req.Instagram, old.Instagram, cur.Instagram)
	str(&req.YouTube, old.YouTube, cur.YouTube)
	str(&req.Vimeo, old.Vimeo, cur.Vimeo)
	str(&req.Behance, old.Behance, cur.Behance)
	str(&req.LinkedIn, old.LinkedIn, cur.LinkedIn)
	str(&req.SEOTitle, old.SEOTitle, cur.SEOTitle)
	str(&req.SEODescription, old.SEODescription, cur.SEODescription)
	flag(&req.EmailNotifications, old.EmailNotifications, cur.EmailNotifications)
	flag(&req.NewMessageAlert, old.NewMessageAlert, cur.NewMessageAlert)
	flag(&req.WeeklyReport, old.WeeklyReport, cur.WeeklyReport)

	if !slices.Equal(old.SEOKeywords, cur.SEOKeywords) {
		req.SEOKeywords = slices.Clone(cur.SEOKeywords)
		if req.SEOKeywords == nil {
			req.SEOKeywords = []string{}
		}
		changed = true
	}
	if socialChanged(old.SocialLinks, cur.SocialLinks) {
		req.SocialLinks = cur.SocialLinks
		if req.SocialLinks == nil {
			req.SocialLinks = &model.SocialLinks{}
		}
		changed = true
	}
	return req, changed
}

func socialChanged(a, b *model.SocialLinks) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil || b == nil:
		return true
	}
	return *a != *b
}
