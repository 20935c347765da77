package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
)

type fakeMessages struct {
	mu   sync.Mutex
	list []model.Message
	per  int

	markReadCalls int
	markReadErr   error
	starCalls     []bool
	deleted       []int64
	replied       []int64
}

var _ MessageHooks = (*fakeMessages)(nil)

func (f *fakeMessages) Messages(_ context.Context, params model.MessageParams) (model.Page[model.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return pageOf(f.list, params.Page, f.per), nil
}

// pageOf slices list the way the API does when per is set, and returns the
// whole list without last_page otherwise.
func pageOf[T any](list []T, page, per int) model.Page[T] {
	if per == 0 {
		return model.Page[T]{Data: append([]T(nil), list...), Total: len(list)}
	}
	page = max(page, 1)
	from := min((page-1)*per, len(list))
	to := min(from+per, len(list))
	return model.Page[T]{
		Data:        append([]T(nil), list[from:to]...),
		CurrentPage: page,
		LastPage:    max((len(list)+per-1)/per, 1),
		PerPage:     per,
		Total:       len(list),
	}
}
func (f *fakeMessages) MarkMessageAsRead(_ context.Context, id int64) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls++
	return model.Message{ID: id, IsRead: true}, f.markReadErr
}
func (f *fakeMessages) ToggleMessageStar(_ context.Context, id int64, starred bool) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starCalls = append(f.starCalls, starred)
	return model.Message{ID: id, IsStarred: model.Flag(starred)}, nil
}
func (f *fakeMessages) MarkMessageAsReplied(_ context.Context, id int64) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replied = append(f.replied, id)
	return model.Message{ID: id}, nil
}
func (f *fakeMessages) DeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func sampleMessages() []model.Message {
	return []model.Message{
		{ID: 1, SenderName: "Maria", SenderEmail: "maria@example.ao", Subject: "Orçamento", IsRead: false, IsStarred: true, Content: "<b>Olá</b> <script>x()</script>"},
		{ID: 2, SenderName: "João", SenderEmail: "joao@example.ao", Subject: "Parceria", IsRead: true, IsStarred: false},
	}
}

func Test_FilterMessages(t *testing.T) {
	msgs := sampleMessages()
	ids := func(ms []model.Message) []int64 {
		var out []int64
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}

	require.Equal(t, []int64{1}, ids(FilterMessages(msgs, FilterUnread, "")))
	require.Equal(t, []int64{1}, ids(FilterMessages(msgs, FilterStarred, "")))
	require.Equal(t, []int64{2}, ids(FilterMessages(msgs, FilterAll, "parceria")))
	require.Equal(t, []int64{1, 2}, ids(FilterMessages(msgs, FilterAll, "")))
	require.Equal(t, []int64{2}, ids(FilterMessages(msgs, FilterAll, "JOAO@")))
	require.Empty(t, FilterMessages(msgs, FilterUnread, "parceria"))
}

func Test_ParseFilter(t *testing.T) {
	require.Equal(t, FilterUnread, ParseFilter(" Unread "))
	require.Equal(t, FilterStarred, ParseFilter("starred"))
	require.Equal(t, FilterAll, ParseFilter(""))
	require.Equal(t, FilterAll, ParseFilter("bogus"))
}

func Test_Inbox_Open_MarksReadOnce(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages()}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(ctx))
	require.Equal(t, 1, in.UnreadCount())

	m, err := in.Open(ctx, 1)
	require.NoError(t, err)
	require.True(t, bool(m.IsRead), "local flip")
	require.Equal(t, 1, f.markReadCalls)

	_, err = in.Open(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, f.markReadCalls, "reopening a read message sends nothing")

	_, err = in.Open(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, f.markReadCalls, "already read")
	require.Equal(t, 0, in.UnreadCount())

	sel, ok := in.Selected()
	require.True(t, ok)
	require.Equal(t, int64(2), sel.ID)
	in.Close()
	_, ok = in.Selected()
	require.False(t, ok)
}

func Test_Inbox_Open_Concurrent_MarksReadOnce(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages()}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(ctx))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = in.Open(ctx, 1)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, f.markReadCalls)
}

func Test_Inbox_Open_FailureRevertsFlip(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages(), markReadErr: errs.ErrTransport}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(ctx))

	m, err := in.Open(ctx, 1)
	require.ErrorIs(t, err, errs.ErrTransport)
	require.Equal(t, 1, in.UnreadCount())
	require.EqualValues(t, 1, m.ID)
	require.False(t, bool(m.IsRead), "returned message matches the reverted list")

	_, err = in.Open(ctx, 99)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func Test_Inbox_ToggleStar_UpdatesOpenView(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages()}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(ctx))
	_, err := in.Open(ctx, 2)
	require.NoError(t, err)

	m, err := in.ToggleStar(ctx, 2)
	require.NoError(t, err)
	require.True(t, bool(m.IsStarred))
	sel, _ := in.Selected()
	require.True(t, bool(sel.IsStarred))

	_, err = in.ToggleStar(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, f.starCalls)

	in.SetFilter(FilterStarred)
	require.Len(t, in.Visible(), 1)
	in.SetSearch("maria")
	require.Len(t, in.Visible(), 1)
	in.SetSearch("joão")
	require.Empty(t, in.Visible())
}

func Test_Inbox_Delete_Confirmation(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages()}
	var prompts []string
	answer := false
	in := NewInbox(f, ConfirmFunc(func(p string) bool {
		prompts = append(prompts, p)
		return answer
	}))
	require.NoError(t, in.Load(ctx))

	require.ErrorIs(t, in.Delete(ctx, 1), errs.ErrCanceled)
	require.Empty(t, f.deleted, "declined delete sends nothing")
	require.Equal(t, []string{"Delete message from Maria?"}, prompts)

	answer = true
	_, _ = in.Open(ctx, 1)
	require.NoError(t, in.Delete(ctx, 1))
	require.Equal(t, []int64{1}, f.deleted)
	require.Len(t, in.Visible(), 1)
	_, ok := in.Selected()
	require.False(t, ok)
}

func Test_Inbox_Reply_And_Content(t *testing.T) {
	ctx := context.Background()
	f := &fakeMessages{list: sampleMessages()}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(ctx))

	link, err := in.Reply(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, f.replied)
	require.True(t, strings.HasPrefix(link, "mailto:maria@example.ao?subject=Re%3A%20"), link)

	content := in.Content(sampleMessages()[0])
	require.NotContains(t, content, "<")
	require.Contains(t, content, "Olá")
}

type fakeProjects struct {
	list []model.Project
	per  int

	created  []model.CreateProjectRequest
	updates  map[int64]model.UpdateProjectRequest
	uploads  int
	deleted  []int64
	orders   [][]model.OrderItem
	orderErr error
}

var _ ProjectHooks = (*fakeProjects)(nil)

func (f *fakeProjects) Projects(_ context.Context, params model.PageParams) (model.Page[model.Project], error) {
	return pageOf(f.list, params.Page, f.per), nil
}
func (f *fakeProjects) CreateProject(_ context.Context, req model.CreateProjectRequest) (model.Project, error) {
	f.created = append(f.created, req)
	return model.Project{ID: 100, Title: req.Title, Category: req.Category}, nil
}
func (f *fakeProjects) UpdateProject(_ context.Context, id int64, req model.UpdateProjectRequest) (model.Project, error) {
	if f.updates == nil {
		f.updates = map[int64]model.UpdateProjectRequest{}
	}
	f.updates[id] = req
	p := model.Project{ID: id, Title: *req.Title}
	if req.ThumbnailURL != nil {
		p.ThumbnailURL = *req.ThumbnailURL
	}
	return p, nil
}
func (f *fakeProjects) DeleteProject(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeProjects) UploadProjectMedia(_ context.Context, projectID int64, file model.Upload, _ model.MediaMeta) (model.ProjectMedia, error) {
	f.uploads++
	return model.ProjectMedia{ID: 9, ProjectID: projectID, URL: "/storage/media/" + file.Filename}, nil
}
func (f *fakeProjects) UpdateProjectOrder(_ context.Context, items []model.OrderItem) error {
	f.orders = append(f.orders, items)
	return f.orderErr
}

func Test_ProjectManager_CreateRequiresThumbnail(t *testing.T) {
	f := &fakeProjects{}
	pm := NewProjectManager(f, nil)

	_, err := pm.Create(context.Background(), ProjectForm{Title: "Reel", Category: "video"})
	require.ErrorIs(t, err, errs.ErrThumbnailRequired)
	require.Empty(t, f.created)

	p, err := pm.Create(context.Background(), ProjectForm{Title: "Reel", Category: "video", Thumbnail: &model.Upload{Filename: "t.jpg", Body: strings.NewReader("x")}})
	require.NoError(t, err)
	require.Equal(t, int64(100), p.ID)
	require.Equal(t, model.StatusDraft, f.created[0].Status)
	require.Equal(t, 0, *f.created[0].IsPublished)
	require.Len(t, pm.Projects(), 1)
}

func Test_ProjectManager_Edit_Thumbnail(t *testing.T) {
	ctx := context.Background()
	f := &fakeProjects{list: []model.Project{{ID: 1, Title: "A", Category: "film", ThumbnailURL: "/storage/projects/a.jpg"}}}
	pm := NewProjectManager(f, nil)
	require.NoError(t, pm.Load(ctx))

	_, err := pm.Edit(ctx, 1, ProjectForm{Title: "A2", Category: "film"})
	require.NoError(t, err)
	require.Equal(t, 0, f.uploads, "no new file, no upload")
	require.Equal(t, "/storage/projects/a.jpg", *f.updates[1].ThumbnailURL)

	p, err := pm.Edit(ctx, 1, ProjectForm{Title: "A3", Category: "film", Thumbnail: &model.Upload{Filename: "b.jpg", Body: strings.NewReader("x")}})
	require.NoError(t, err)
	require.Equal(t, 1, f.uploads)
	require.Equal(t, "/storage/media/b.jpg", *f.updates[1].ThumbnailURL)
	require.Equal(t, "/storage/media/b.jpg", p.ThumbnailURL)
	require.Equal(t, "A3", pm.Projects()[0].Title)
}

func Test_ProjectManager_SearchAndDelete(t *testing.T) {
	ctx := context.Background()
	f := &fakeProjects{list: []model.Project{
		{ID: 1, Title: "Mar Azul", Category: "Documentary", DisplayOrder: 1},
		{ID: 2, Title: "Kuduro", Category: "Music video", DisplayOrder: 0},
	}}
	pm := NewProjectManager(f, ConfirmFunc(func(p string) bool { return !strings.Contains(p, "Kuduro") }))
	require.NoError(t, pm.Load(ctx))
	require.Equal(t, int64(2), pm.Projects()[0].ID, "display order")

	require.Len(t, pm.Search("MUSIC"), 1)
	require.Len(t, pm.Search("azul"), 1)
	require.Len(t, pm.Search(""), 2)
	require.Empty(t, pm.Search("zzz"))

	require.ErrorIs(t, pm.Delete(ctx, 2), errs.ErrCanceled)
	require.NoError(t, pm.Delete(ctx, 1))
	require.Equal(t, []int64{1}, f.deleted)
	require.Len(t, pm.Projects(), 1)
}

func Test_Gallery_ReorderSave(t *testing.T) {
	ctx := context.Background()
	f := &fakeProjects{list: []model.Project{
		{ID: 1, Title: "A", DisplayOrder: 0},
		{ID: 2, Title: "B", DisplayOrder: 1},
		{ID: 3, Title: "C", DisplayOrder: 2},
	}}
	g := NewGallery(f)
	require.NoError(t, g.Load(ctx))

	// [A,B,C] -> [C,A,B]
	require.NoError(t, g.Move(2, 0))
	require.True(t, g.Dirty())
	titles := func() string {
		var s []string
		for _, p := range g.Items() {
			s = append(s, p.Title)
		}
		return strings.Join(s, ",")
	}
	require.Equal(t, "C,A,B", titles())

	require.NoError(t, g.Save(ctx))
	require.False(t, g.Dirty())
	require.Equal(t, [][]model.OrderItem{{{ID: 3, DisplayOrder: 0}, {ID: 1, DisplayOrder: 1}, {ID: 2, DisplayOrder: 2}}}, f.orders)
	for i, p := range g.Items() {
		require.Equal(t, i, p.DisplayOrder)
	}

	require.NoError(t, g.Save(ctx))
	require.Len(t, f.orders, 1, "clean gallery saves nothing")
}

func Test_Gallery_ResetBeforeSave(t *testing.T) {
	f := &fakeProjects{}
	g := NewGallery(f)
	g.SetItems([]model.Project{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}})

	require.NoError(t, g.Move(2, 0))
	g.Reset()
	require.False(t, g.Dirty())
	require.Equal(t, int64(1), g.Items()[0].ID)
	require.Empty(t, f.orders, "reset sends nothing")

	require.Error(t, g.Move(0, 3))
	require.NoError(t, g.Move(1, 1))
	require.False(t, g.Dirty())
}

func Test_Gallery_FailedSaveKeepsOrder(t *testing.T) {
	f := &fakeProjects{orderErr: errors.New("boom")}
	g := NewGallery(f)
	g.SetItems([]model.Project{{ID: 1}, {ID: 2}})
	require.NoError(t, g.Move(0, 1))

	require.Error(t, g.Save(context.Background()))
	require.True(t, g.Dirty())
	require.Equal(t, int64(2), g.Items()[0].ID)
}

type fakeSettings struct {
	cur   model.StudioSettings
	saved []model.SaveStudioSettingsRequest
}

func (f *fakeSettings) StudioSettings(context.Context) (model.StudioSettings, error) { return f.cur, nil }
func (f *fakeSettings) SaveStudioSettings(_ context.Context, req model.SaveStudioSettingsRequest) (model.StudioSettings, error) {
	f.saved = append(f.saved, req)
	if req.Tagline != nil {
		f.cur.Tagline = *req.Tagline
	}
	if req.WeeklyReport != nil {
		f.cur.WeeklyReport = model.Flag(*req.WeeklyReport)
	}
	return f.cur, nil
}

func Test_SettingsForm_SavesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	f := &fakeSettings{cur: model.StudioSettings{StudioName: "Soft Seven", Tagline: "old"}}
	form := NewSettingsForm(f)
	require.NoError(t, form.Load(ctx))

	_, err := form.Save(ctx)
	require.NoError(t, err)
	require.Empty(t, f.saved, "unchanged form sends nothing")

	form.Edit(func(s *model.StudioSettings) {
		s.Tagline = "new"
		s.WeeklyReport = true
	})
	req, changed := form.Changes()
	require.True(t, changed)
	require.Nil(t, req.StudioName)
	require.Equal(t, "new", *req.Tagline)
	require.True(t, *req.WeeklyReport)

	st, err := form.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", st.Tagline)
	_, changed = form.Changes()
	require.False(t, changed)
}

func Test_diffSettings_SocialAndKeywords(t *testing.T) {
	old := model.StudioSettings{SEOKeywords: []string{"film"}}
	cur := old
	cur.SEOKeywords = nil
	cur.SocialLinks = &model.SocialLinks{Instagram: "@soft7"}

	req, changed := diffSettings(old, cur)
	require.True(t, changed)
	require.Equal(t, []string{}, req.SEOKeywords)
	require.Equal(t, "@soft7", req.SocialLinks.Instagram)

	_, changed = diffSettings(cur, cur)
	require.False(t, changed)
}

type fakeDashboard struct {
	projects, messages, unread, starred int
}

func (f fakeDashboard) Projects(context.Context, model.PageParams) (model.Page[model.Project], error) {
	return model.Page[model.Project]{Total: f.projects}, nil
}
func (f fakeDashboard) Messages(_ context.Context, p model.MessageParams) (model.Page[model.Message], error) {
	switch {
	case p.IsRead != nil:
		return model.Page[model.Message]{Total: f.unread}, nil
	case p.IsStarred != nil:
		return model.Page[model.Message]{Total: f.starred}, nil
	}
	return model.Page[model.Message]{Total: f.messages}, nil
}

func Test_LoadStats(t *testing.T) {
	st, err := LoadStats(context.Background(), fakeDashboard{projects: 4, messages: 10, unread: 3, starred: 2})
	require.NoError(t, err)
	require.Equal(t, Stats{Projects: 4, Messages: 10, Unread: 3, Starred: 2}, st)
}

func Test_Inbox_Load_FollowsLastPage(t *testing.T) {
	list := make([]model.Message, 5)
	for i := range list {
		list[i] = model.Message{ID: int64(i + 1), Subject: fmt.Sprintf("m%d", i+1)}
	}
	f := &fakeMessages{list: list, per: 2}
	in := NewInbox(f, nil)
	require.NoError(t, in.Load(context.Background()))
	require.Len(t, in.Visible(), 5)
	require.Equal(t, 5, in.UnreadCount())
}

func Test_loadProjects_FollowsLastPage(t *testing.T) {
	f := &fakeProjects{per: 2}
	for i := range 5 {
		f.list = append(f.list, model.Project{ID: int64(i + 1), DisplayOrder: 5 - i})
	}
	list, err := loadProjects(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, list, 5)
	require.EqualValues(t, 5, list[0].ID)
	require.EqualValues(t, 1, list[4].ID)
}

func Test_allPages_StopsOnError(t *testing.T) {
	calls := 0
	_, err := allPages(context.Background(), func(_ context.Context, n int) (model.Page[int], error) {
		calls++
		if n == 2 {
			return model.Page[int]{}, errs.ErrTransport
		}
		return model.Page[int]{Data: []int{n}, LastPage: 3}, nil
	})
	require.ErrorIs(t, err, errs.ErrTransport)
	require.Equal(t, 2, calls)
}
