package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/media"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/repository"
)

// In-memory fakes of the repository interfaces. They keep just enough
// behaviour (ordering, uniqueness, cascades the services rely on) to test
// the rules without SQLite.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return prefix + "-" + strconv.Itoa(s.n)
}

var ids idSeq

// --- users ---

type fakeUsers struct {
	byID map[string]*model.User
	err  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return apperror.Conflict("user", "username", u.Username)
		}
	}
	u.ID = ids.next("user")
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUsers) UpsertGitHub(ctx context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.GitHubID != nil && *existing.GitHubID == *u.GitHubID {
			if u.Email != "" {
				existing.Email = u.Email
			}
			*u = *existing
			return nil
		}
	}
	return f.Create(ctx, u)
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) add(username string) *model.User {
	u := &model.User{Username: username}
	if err := f.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// --- groups ---

type fakeGroups struct {
	items []*model.Group
}

func (f *fakeGroups) Create(_ context.Context, g *model.Group) error {
	for _, existing := range f.items {
		if existing.Slug == g.Slug {
			return apperror.Conflict("group", "slug", g.Slug)
		}
	}
	g.ID = ids.next("group")
	cp := *g
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeGroups) GetByID(_ context.Context, id string) (*model.Group, error) {
	for _, g := range f.items {
		if g.ID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("group", id)
}

func (f *fakeGroups) GetBySlug(_ context.Context, slug string) (*model.Group, error) {
	for _, g := range f.items {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("group", slug)
}

func (f *fakeGroups) List(context.Context) ([]model.Group, error) {
	out := make([]model.Group, 0, len(f.items))
	for _, g := range f.items {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGroups) Update(_ context.Context, g *model.Group) error {
	for _, existing := range f.items {
		if existing.ID == g.ID {
			existing.Title = g.Title
			existing.Description = g.Description
			return nil
		}
	}
	return apperror.NotFound("group", g.ID)
}

func (f *fakeGroups) Delete(_ context.Context, id string) error {
	for i, g := range f.items {
		if g.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("group", id)
}

// --- posts ---

type fakePosts struct {
	items   []*model.Post // insertion order, oldest first
	follows *fakeFollows
	writes  int
}

func (f *fakePosts) Create(_ context.Context, p *model.Post) error {
	f.writes++
	p.ID = ids.next("post")
	p.CreatedAt = time.Now()
	cp := *p
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id string) (*model.Post, error) {
	for _, p := range f.items {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (f *fakePosts) match(p *model.Post, filter repository.PostFilter) bool {
	if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
		return false
	}
	if filter.GroupID != "" && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
		return false
	}
	if filter.FollowerID != "" && !f.follows.has(filter.FollowerID, p.AuthorID) {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(p.Text), strings.ToLower(filter.Search)) {
		return false
	}
	if !filter.Since.IsZero() && p.CreatedAt.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && !p.CreatedAt.Before(filter.Until) {
		return false
	}
	return true
}

func (f *fakePosts) List(_ context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	var matched []model.Post
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.match(f.items[i], filter) {
			matched = append(matched, *f.items[i])
		}
	}
	if opts.Offset >= len(matched) {
		return []model.Post{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(matched))
	return matched[opts.Offset:end], nil
}

func (f *fakePosts) Count(_ context.Context, filter repository.PostFilter) (int, error) {
	n := 0
	for _, p := range f.items {
		if f.match(p, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakePosts) Update(_ context.Context, p *model.Post) error {
	f.writes++
	for _, existing := range f.items {
		if existing.ID == p.ID {
			existing.Text = p.Text
			existing.GroupID = p.GroupID
			existing.Image = p.Image
			return nil
		}
	}
	return apperror.NotFound("post", p.ID)
}

func (f *fakePosts) Delete(_ context.Context, id string) error {
	f.writes++
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("post", id)
}

// --- comments ---

type fakeComments struct {
	items []model.Comment
}

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	c.ID = ids.next("comment")
	c.CreatedAt = time.Now()
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeComments) ListByPost(_ context.Context, postID string) ([]model.Comment, error) {
	out := []model.Comment{}
	for _, c := range f.items {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- follows ---

type fakeFollows struct {
	pairs map[[2]string]bool
	calls int
	// conflictOnCreate simulates a concurrent insert of the same pair.
	conflictOnCreate bool
}

func newFakeFollows() *fakeFollows {
	return &fakeFollows{pairs: map[[2]string]bool{}}
}

func (f *fakeFollows) has(userID, authorID string) bool {
	return f.pairs[[2]string{userID, authorID}]
}

func (f *fakeFollows) Create(_ context.Context, fl *model.Follow) error {
	f.calls++
	key := [2]string{fl.UserID, fl.AuthorID}
	if f.conflictOnCreate || f.pairs[key] {
		return apperror.Conflict("follow", "author", fl.AuthorID)
	}
	if fl.UserID == fl.AuthorID {
		return apperror.ValidationFailed("author", "users cannot follow themselves")
	}
	f.pairs[key] = true
	return nil
}

func (f *fakeFollows) Exists(_ context.Context, userID, authorID string) (bool, error) {
	f.calls++
	return f.has(userID, authorID), nil
}

func (f *fakeFollows) Delete(_ context.Context, userID, authorID string) (bool, error) {
	f.calls++
	key := [2]string{userID, authorID}
	existed := f.pairs[key]
	delete(f.pairs, key)
	return existed, nil
}

func (f *fakeFollows) CountFollowing(_ context.Context, userID string) (int, error) {
	n := 0
	for k := range f.pairs {
		if k[0] == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollows) CountFollowers(_ context.Context, authorID string) (int, error) {
	n := 0
	for k := range f.pairs {
		if k[1] == authorID {
			n++
		}
	}
	return n, nil
}

// --- images ---

type fakeImages struct {
	saved   map[string][]byte
	removed []string
}

func newFakeImages() *fakeImages {
	return &fakeImages{saved: map[string][]byte{}}
}

func (f *fakeImages) Save(img *media.Image) (string, error) {
	name := "posts/" + ids.next("img") + img.Ext
	f.saved[name] = img.Data
	return name, nil
}

func (f *fakeImages) Remove(name string) error {
	f.removed = append(f.removed, name)
	delete(f.saved, name)
	return nil
}
