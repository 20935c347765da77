package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/softseven/studio-admin/internal/admin"
	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), errUsage)
	}
	return nil
}

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

func needID(id int64, what string) error {
	if id <= 0 {
		return fmt.Errorf("%s: -id is required: %w", what, errUsage)
	}
	return nil
}

func (a *app) table(header string, rows func(w *tabwriter.Writer)) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	_ = w.Flush()
}

// openUpload opens path as a multipart upload. The caller closes the file.
func openUpload(path string) (*model.Upload, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return &model.Upload{Filename: filepath.Base(path), Body: f}, f, nil
}

// ---- auth ----

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password (read from stdin when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("login: -email is required: %w", errUsage)
	}
	if *password == "" {
		fmt.Fprint(a.errOut, "Password: ")
		line, _ := a.in.ReadString('\n')
		*password = strings.TrimSpace(line)
	}
	u, err := a.sess.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.sess.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	if err := a.sess.Initialize(ctx); err != nil {
		return err
	}
	if !a.sess.Authenticated(ctx) {
		return errs.ErrNoToken
	}
	a.printJSON(a.sess.Snapshot().User)
	return nil
}

func (a *app) cmdDashboard(ctx context.Context) error {
	st, err := admin.LoadStats(ctx, a.hooks)
	if err != nil {
		return err
	}
	a.table("PROJECTS\tMESSAGES\tUNREAD\tSTARRED", func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", st.Projects, st.Messages, st.Unread, st.Starred)
	})
	return nil
}

// ---- projects ----

func (a *app) cmdProjects(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	switch sub {
	case "list":
		return a.projectsList(ctx, rest)
	case "show":
		return a.projectsShow(ctx, rest)
	case "create":
		return a.projectsCreate(ctx, rest)
	case "edit":
		return a.projectsEdit(ctx, rest)
	case "delete":
		return a.projectsDelete(ctx, rest)
	case "reorder":
		return a.projectsReorder(ctx, rest)
	case "media":
		return a.projectsMedia(ctx, rest)
	case "upload":
		return a.projectsUpload(ctx, rest)
	}
	return fmt.Errorf("projects %s: %w", sub, errUsage)
}

func (a *app) projectsList(ctx context.Context, args []string) error {
	fs := a.flags("projects list")
	search := fs.String("search", "", "filter by title or category")
	if err := parse(fs, args); err != nil {
		return err
	}
	pm := admin.NewProjectManager(a.hooks, a)
	if err := pm.Load(ctx); err != nil {
		return err
	}
	a.table("ID\tORDER\tSTATUS\tPUBLISHED\tTITLE\tCATEGORY", func(w *tabwriter.Writer) {
		for _, p := range pm.Search(*search) {
			fmt.Fprintf(w, "%d\t%d\t%s\t%t\t%s\t%s\n", p.ID, p.DisplayOrder, p.Status, bool(p.IsPublished), p.Title, p.Category)
		}
	})
	return nil
}

func (a *app) projectsShow(ctx context.Context, args []string) error {
	fs := a.flags("projects show")
	id := fs.Int64("id", 0, "project id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := needID(*id, "projects show"); err != nil {
		return err
	}
	p, err := a.hooks.Project(ctx, *id)
	if err != nil {
		return err
	}
	a.printJSON(p)
	return nil
}

// projectFlags registers the form fields shared by create and edit.
func projectFlags(fs *flag.FlagSet) (*admin.ProjectForm, *string) {
	f := &admin.ProjectForm{}
	fs.StringVar(&f.Title, "title", "", "title")
	fs.StringVar(&f.Category, "category", "", "category")
	fs.StringVar(&f.Status, "status", "", "draft|published|archived")
	fs.StringVar(&f.Partner, "partner", "", "partner")
	fs.StringVar(&f.Genre, "genre", "", "genre")
	fs.StringVar(&f.Format, "format", "", "format")
	fs.StringVar(&f.Description, "description", "", "description")
	fs.BoolVar(&f.IsPublished, "published", false, "publish on the website")
	thumb := fs.String("thumbnail", "", "thumbnail image file")
	return f, thumb
}

func (a *app) projectsCreate(ctx context.Context, args []string) error {
	fs := a.flags("projects create")
	form, thumb := projectFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *thumb != "" {
		up, f, err := openUpload(*thumb)
		if err != nil {
			return err
		}
		defer f.Close()
		form.Thumbnail = up
	}
	p, err := admin.NewProjectManager(a.hooks, a).Create(ctx, *form)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, p.ID)
	return nil
}

func (a *app) projectsEdit(ctx context.Context, args []string) error {
	fs := a.flags("projects edit")
	id := fs.Int64("id", 0, "project id")
	form, thumb := projectFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := needID(*id, "projects edit"); err != nil {
		return err
	}

	cur, err := a.hooks.Project(ctx, *id)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	keep := func(name string, dst *string, v string) {
		if !set[name] {
			*dst = v
		}
	}
	keep("title", &form.Title, cur.Title)
	keep("category", &form.Category, cur.Category)
	keep("status", &form.Status, cur.Status)
	keep("partner", &form.Partner, cur.Partner)
	keep("genre", &form.Genre, cur.Genre)
	keep("format", &form.Format, cur.Format)
	keep("description", &form.Description, cur.Description)
	if !set["published"] {
		form.IsPublished = bool(cur.IsPublished)
	}
	if *thumb != "" {
		up, f, err := openUpload(*thumb)
		if err != nil {
			return err
		}
		defer f.Close()
		form.Thumbnail = up
	}

	pm := admin.NewProjectManager(a.hooks, a)
	if err := pm.Load(ctx); err != nil {
		return err
	}
	p, err := pm.Edit(ctx, *id, *form)
	if err != nil {
		return err
	}
	a.printJSON(p)
	return nil
}

func (a *app) projectsDelete(ctx context.Context, args []string) error {
	fs := a.flags("projects delete")
	id := fs.Int64("id", 0, "project id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := needID(*id, "projects delete"); err != nil {
		return err
	}
	pm := admin.NewProjectManager(a.hooks, a)
	if err := pm.Load(ctx); err != nil {
		return err
	}
	return pm.Delete(ctx, *id)
}

func (a *app) projectsReorder(ctx context.Context, args []string) error {
	fs := a.flags("projects reorder")
	order := fs.String("order", "", "comma-separated project ids in the new order")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := parseIDs(*order)
	if err != nil || len(ids) == 0 {
		return fmt.Errorf("projects reorder: -order: %w", errUsage)
	}
	g := admin.NewGallery(a.hooks)
	if err := g.Load(ctx); err != nil {
		return err
	}
	if err := arrange(g, ids); err != nil {
		return err
	}
	if err := g.Save(ctx); err != nil {
		return err
	}
	a.table("ORDER\tID\tTITLE", func(w *tabwriter.Writer) {
		for _, p := range g.Items() {
			fmt.Fprintf(w, "%d\t%d\t%s\n", p.DisplayOrder, p.ID, p.Title)
		}
	})
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// arrange moves ids to the front of the gallery in the given order; the
// rest keep their relative order after them.
func arrange(g *admin.Gallery, ids []int64) error {
	for want, id := range ids {
		items := g.Items()
		at := -1
		for i, p := range items {
			if p.ID == id {
				at = i
				break
			}
		}
		if at < 0 {
			return fmt.Errorf("project %d: %w", id, errs.ErrNotFound)
		}
		if at < want {
			return fmt.Errorf("project %d listed twice: %w", id, errUsage)
		}
		if err := g.Move(at, want); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) projectsMedia(ctx context.Context, args []string) error {
	fs := a.flags("projects media")
	id := fs.Int64("id", 0, "project id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := needID(*id, "projects media"); err != nil {
		return err
	}
	list, err := a.hooks.ProjectMedia(ctx, *id)
	if err != nil {
		return err
	}
	a.table("ID\tORDER\tTYPE\tTITLE\tURL", func(w *tabwriter.Writer) {
		for _, m := range list {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", m.ID, m.DisplayOrder, m.FileType, m.Title, a.client.AssetURL(m.Reference()))
		}
	})
	return nil
}

func (a *app) projectsUpload(ctx context.Context, args []string) error {
	fs := a.flags("projects upload")
	id := fs.Int64("id", 0, "project id")
	file := fs.String("file", "", "image or video file")
	title := fs.String("title", "", "title")
	desc := fs.String("description", "", "description")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := needID(*id, "projects upload"); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("projects upload: -file is required: %w", errUsage)
	}
	up, f, err := openUpload(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := a.hooks.UploadProjectMedia(ctx, *id, *up, model.MediaMeta{Title: *title, Description: *desc})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.client.AssetURL(m.Reference()))
	return nil
}

// ---- messages ----

func (a *app) cmdMessages(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	in := admin.NewInbox(a.hooks, a)

	if sub == "list" {
		fs := a.flags("messages list")
		filter := fs.String("filter", "all", "all|unread|starred")
		search := fs.String("search", "", "search sender name, subject or email")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if err := in.Load(ctx); err != nil {
			return err
		}
		in.SetFilter(admin.ParseFilter(*filter))
		in.SetSearch(*search)
		a.table("ID\t \tFROM\tSUBJECT\tRECEIVED", func(w *tabwriter.Writer) {
			for _, m := range in.Visible() {
				fmt.Fprintf(w, "%d\t%s\t%s <%s>\t%s\t%s\n", m.ID, marks(m), m.SenderName, m.SenderEmail, m.Subject, m.CreatedAt.Format("2006-01-02 15:04"))
			}
		})
		fmt.Fprintf(a.out, "%d unread\n", in.UnreadCount())
		return nil
	}

	fs := a.flags("messages " + sub)
	id := fs.Int64("id", 0, "message id")
	if err := parse(fs, rest); err != nil {
		return err
	}
	if err := needID(*id, "messages "+sub); err != nil {
		return err
	}
	if err := in.Load(ctx); err != nil {
		return err
	}

	switch sub {
	case "open":
		m, err := in.Open(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "From:    %s <%s>\n", m.SenderName, m.SenderEmail)
		if m.Phone != "" {
			fmt.Fprintf(a.out, "Phone:   %s\n", m.Phone)
		}
		fmt.Fprintf(a.out, "Subject: %s\n", m.Subject)
		fmt.Fprintf(a.out, "Date:    %s\n\n", m.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintln(a.out, in.Content(m))
		return nil
	case "star":
		m, err := in.ToggleStar(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "starred: %t\n", bool(m.IsStarred))
		return nil
	case "reply":
		link, err := in.Reply(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, link)
		return nil
	case "delete":
		return in.Delete(ctx, *id)
	}
	return fmt.Errorf("messages %s: %w", sub, errUsage)
}

func marks(m model.Message) string {
	s := ""
	if !m.IsRead {
		s += "N"
	}
	if m.IsStarred {
		s += "*"
	}
	if m.RepliedAt != nil {
		s += "R"
	}
	return s
}

// ---- settings, users, roles, profile ----

func (a *app) cmdSettings(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	form := admin.NewSettingsForm(a.hooks)
	if err := form.Load(ctx); err != nil {
		return err
	}
	switch sub {
	case "show":
		a.printJSON(form.Draft())
		return nil
	case "save":
	default:
		return fmt.Errorf("settings %s: %w", sub, errUsage)
	}

	fs := a.flags("settings save")
	str := map[string]*string{}
	for _, name := range []string{"name", "tagline", "description", "bio", "email", "phone", "address",
		"instagram", "youtube", "vimeo", "behance", "linkedin", "seo-title", "seo-description", "seo-keywords"} {
		str[name] = fs.String(name, "", name)
	}
	boolean := map[string]*bool{}
	for _, name := range []string{"email-notifications", "new-message-alert", "weekly-report"} {
		boolean[name] = fs.Bool(name, false, name)
	}
	if err := parse(fs, rest); err != nil {
		return err
	}

	form.Edit(func(s *model.StudioSettings) {
		fs.Visit(func(f *flag.Flag) {
			if v, ok := str[f.Name]; ok {
				applySetting(s, f.Name, *v)
			}
			if v, ok := boolean[f.Name]; ok {
				applyFlag(s, f.Name, *v)
			}
		})
	})
	if _, changed := form.Changes(); !changed {
		fmt.Fprintln(a.out, "no changes")
		return nil
	}
	st, err := form.Save(ctx)
	if err != nil {
		return err
	}
	a.printJSON(st)
	return nil
}

func applySetting(s *model.StudioSettings, name, v string) {
	switch name {
	case "name":
		s.StudioName = v
	case "tagline":
		s.Tagline = v
	case "description":
		s.Description = v
	case "bio":
		s.Bio = v
	case "email":
		s.ContactEmail = v
	case "phone":
		s.Phone = v
	case "address":
		s.Address = v
	case "instagram":
		s.Instagram = v
	case "youtube":
		s.YouTube = v
	case "vimeo":
		s.Vimeo = v
	case "behance":
		s.Behance = v
	case "linkedin":
		s.LinkedIn = v
	case "seo-title":
		s.SEOTitle = v
	case "seo-description":
		s.SEODescription = v
	case "seo-keywords":
		s.SEOKeywords = nil
		for k := range strings.SplitSeq(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				s.SEOKeywords = append(s.SEOKeywords, k)
			}
		}
	}
}

func applyFlag(s *model.StudioSettings, name string, v bool) {
	switch name {
	case "email-notifications":
		s.EmailNotifications = model.Flag(v)
	case "new-message-alert":
		s.NewMessageAlert = model.Flag(v)
	case "weekly-report":
		s.WeeklyReport = model.Flag(v)
	}
}

func (a *app) cmdUsers(ctx context.Context, args []string) error {
	if sub, _, err := subcommand(args); err != nil || sub != "list" {
		return fmt.Errorf("users: %w", errUsage)
	}
	page, err := a.hooks.Users(ctx, model.PageParams{PerPage: 100})
	if err != nil {
		return err
	}
	a.table("ID\tNAME\tEMAIL", func(w *tabwriter.Writer) {
		for _, u := range page.Data {
			fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
		}
	})
	return nil
}

func (a *app) cmdRoles(ctx context.Context, args []string) error {
	if sub, _, err := subcommand(args); err != nil || sub != "list" {
		return fmt.Errorf("roles: %w", errUsage)
	}
	page, err := a.hooks.Roles(ctx, model.PageParams{PerPage: 100})
	if err != nil {
		return err
	}
	a.table("ID\tUSER\tROLE", func(w *tabwriter.Writer) {
		for _, r := range page.Data {
			fmt.Fprintf(w, "%d\t%d\t%s\n", r.ID, r.UserID, r.Role)
		}
	})
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	if sub, _, err := subcommand(args); err != nil || sub != "show" {
		return fmt.Errorf("profile: %w", errUsage)
	}
	p, err := a.hooks.Profile(ctx)
	if err != nil {
		return err
	}
	a.printJSON(p)
	return nil
}
