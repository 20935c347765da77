package admin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/softseven/studio-admin/internal/model"
)

// DashboardHooks is what the dashboard needs.
type DashboardHooks interface {
	Projects(ctx context.Context, params model.PageParams) (model.Page[model.Project], error)
	Messages(ctx context.Context, params model.MessageParams) (model.Page[model.Message], error)
}

// Stats are the dashboard counters.
type Stats struct {
	Projects int `json:"projects"`
	Messages int `json:"messages"`
	Unread   int `json:"unread"`
	Starred  int `json:"starred"`
}

// LoadStats reads the counters concurrently from the page totals.
func LoadStats(ctx context.Context, h DashboardHooks) (Stats, error) {
	var st Stats
	one := model.PageParams{PerPage: 1}
	no, yes := false, true

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := h.Projects(ctx, one)
		st.Projects = p.Total
		return err
	})
	g.Go(func() error {
		p, err := h.Messages(ctx, model.MessageParams{PageParams: one})
		st.Messages = p.Total
		return err
	})
	g.Go(func() error {
		p, err := h.Messages(ctx, model.MessageParams{PageParams: one, IsRead: &no})
		st.Unread = p.Total
		return err
	})
	g.Go(func() error {
		p, err := h.Messages(ctx, model.MessageParams{PageParams: one, IsStarred: &yes})
		st.Starred = p.Total
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}
