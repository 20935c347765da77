package devapi

import (
	"net/http"

	"github.com/softseven/studio-admin/internal/model"
)

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.settings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req model.SaveStudioSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.StudioName != nil && *req.StudioName == "" {
		v := validation{}
		v.require("studio_name", "")
		v.write(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.settings
	set(&st.StudioName, req.StudioName)
	set(&st.Tagline, req.Tagline)
	set(&st.Description, req.Description)
	set(&st.Bio, req.Bio)
	set(&st.ContactEmail, req.ContactEmail)
	set(&st.Phone, req.Phone)
	set(&st.Address, req.Address)
	set(&st.Instagram, req.Instagram)
	set(&st.YouTube, req.YouTube)
	set(&st.Vimeo, req.Vimeo)
	set(&st.Behance, req.Behance)
	set(&st.LinkedIn, req.LinkedIn)
	set(&st.SEOTitle, req.SEOTitle)
	set(&st.SEODescription, req.SEODescription)
	if req.SocialLinks != nil {
		links := *req.SocialLinks
		st.SocialLinks = &links
	}
	if req.EmailNotifications != nil {
		st.EmailNotifications = model.Flag(*req.EmailNotifications)
	}
	if req.NewMessageAlert != nil {
		st.NewMessageAlert = model.Flag(*req.NewMessageAlert)
	}
	if req.WeeklyReport != nil {
		st.WeeklyReport = model.Flag(*req.WeeklyReport)
	}
	if req.SEOKeywords != nil {
		st.SEOKeywords = append([]string(nil), req.SEOKeywords...)
	}
	st.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, *st)
}
