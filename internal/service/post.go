// Package service holds the blog's business rules.
//
// WHERE THE RULES LIVE:
// Handlers call services with plain values (IDs, strings, inputs) and get
// back models or apperror values; services never see an *http.Request.
// That keeps one set of rules for both front ends:
//
//	cmd/server → handler → service → repository → SQLite
//	cmd/admin  ──────────→ service → repository → SQLite
//
// SILENT DENIALS:
// Several blog rules are "do nothing" rules: following yourself, following
// twice, an empty comment, a non-author editing a post. Services report
// them as a no-op result or as apperror.ErrForbidden and leave it to the
// handler to turn that into a plain redirect.
//
// Storage is reached through the repository interfaces, so tests run the
// rules against in-memory fakes (see fakes_test.go).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/yatube/internal/apperror"
	"github.com/sakif/yatube/internal/media"
	"github.com/sakif/yatube/internal/model"
	"github.com/sakif/yatube/internal/pagination"
	"github.com/sakif/yatube/internal/repository"
)

// DefaultPageSize is how many posts a listing page shows.
const DefaultPageSize = 10

// ImageStore persists post images. *media.Storage implements it.
type ImageStore interface {
	Save(img *media.Image) (string, error)
	Remove(name string) error
}

// PostInput is a validated create/edit submission. GroupID nil means no
// group. Image replaces the current image; ClearImage drops it.
type PostInput struct {
	Text       string
	GroupID    *string
	Image      *media.Image
	ClearImage bool
}

// PostPage is one page of a post listing.
type PostPage = pagination.Page[model.Post]

// GroupPosts is a group and one page of its posts.
type GroupPosts struct {
	Group *model.Group `json:"group"`
	Page  PostPage     `json:"page"`
}

// Profile is an author, one page of their posts, and whether the viewer
// follows them.
type Profile struct {
	Author         *model.User `json:"author"`
	Page           PostPage    `json:"page"`
	PostCount      int         `json:"postCount"`
	Following      bool        `json:"following"`
	FollowingCount int         `json:"followingCount"`
	FollowersCount int         `json:"followersCount"`
}

// PostDetail is a post with its comments, oldest first.
type PostDetail struct {
	Post            *model.Post     `json:"post"`
	Comments        []model.Comment `json:"comments"`
	AuthorPostCount int             `json:"authorPostCount"`
}

// PostService implements listings, post CRUD and comments.
type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  *FollowService
	images   ImageStore
	pageSize int
	logger   *slog.Logger
}

// PostServiceDeps lists what PostService is built from. Follows supplies
// the follow state and counts on profile pages. Images may be nil when
// nothing uploads (the admin tool); PageSize <= 0 means DefaultPageSize.
type PostServiceDeps struct {
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Groups   repository.GroupRepository
	Users    repository.UserRepository
	Follows  *FollowService
	Images   ImageStore
	PageSize int
}

// NewPostService wires a PostService from its dependencies. The caller
// owns them; nothing is opened or closed here.
func NewPostService(deps PostServiceDeps, logger *slog.Logger) *PostService {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostService{
		posts:    deps.Posts,
		comments: deps.Comments,
		groups:   deps.Groups,
		users:    deps.Users,
		follows:  deps.Follows,
		images:   deps.Images,
		pageSize: pageSize,
		logger:   logger,
	}
}

// listPage counts the filter's posts, resolves the requested page against
// that total, then fetches just that window.
func (s *PostService) listPage(ctx context.Context, filter repository.PostFilter, rawPage string) (PostPage, error) {
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return PostPage{}, fmt.Errorf("counting posts: %w", err)
	}
	p := pagination.Resolve(rawPage, total, s.pageSize)
	items, err := s.posts.List(ctx, filter, repository.ListOptions{Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		return PostPage{}, fmt.Errorf("listing posts: %w", err)
	}
	for i := range items {
		setImageURL(&items[i])
	}
	return pagination.NewPage(items, p, total), nil
}

func setImageURL(post *model.Post) {
	post.ImageURL = media.URL(post.Image)
}

// Index is every post, newest first.
func (s *PostService) Index(ctx context.Context, rawPage string) (PostPage, error) {
	return s.listPage(ctx, repository.PostFilter{}, rawPage)
}

// SearchQuery narrows an operator's post listing. Every field is
// optional; Until is exclusive.
type SearchQuery struct {
	Text  string
	Since time.Time
	Until time.Time
}

// Search lists posts whose text contains q.Text and that were published
// in [q.Since, q.Until), newest first.
func (s *PostService) Search(ctx context.Context, q SearchQuery, rawPage string) (PostPage, error) {
	if !q.Since.IsZero() && !q.Until.IsZero() && !q.Since.Before(q.Until) {
		return PostPage{}, apperror.ValidationFailed("until", "until must be after since")
	}
	return s.listPage(ctx, repository.PostFilter{
		Search: strings.TrimSpace(q.Text),
		Since:  q.Since,
		Until:  q.Until,
	}, rawPage)
}

// GroupPosts returns apperror.ErrNotFound for an unknown slug.
func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*GroupPosts, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page, err := s.listPage(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupPosts{Group: group, Page: page}, nil
}

// Profile lists an author's posts. viewerID may be empty (anonymous).
func (s *PostService) Profile(ctx context.Context, viewerID, username, rawPage string) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.listPage(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.IsFollow(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.follows.Following(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("counting following: %w", err)
	}
	followersCount, err := s.follows.Followers(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("counting followers: %w", err)
	}
	return &Profile{
		Author:         author,
		Page:           page,
		PostCount:      page.Count,
		Following:      following,
		FollowingCount: followingCount,
		FollowersCount: followersCount,
	}, nil
}

// Feed lists posts by the authors userID follows.
func (s *PostService) Feed(ctx context.Context, userID, rawPage string) (PostPage, error) {
	if userID == "" {
		return PostPage{}, apperror.Unauthorized("login required")
	}
	return s.listPage(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}

func (s *PostService) Get(ctx context.Context, postID string) (*model.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

func (s *PostService) Detail(ctx context.Context, postID string) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("counting author posts: %w", err)
	}
	setImageURL(post)
	return &PostDetail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "This field is required.")
	}
	return text, nil
}

// Create saves a new post by authorID. An uploaded image is written first
// and removed again if the insert fails.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	text, err := validateText(in.Text)
	if err != nil {
		return nil, err
	}

	post := &model.Post{Text: text, AuthorID: authorID, GroupID: in.GroupID}
	if in.Image != nil {
		if post.Image, err = s.images.Save(in.Image); err != nil {
			return nil, fmt.Errorf("saving image: %w", err)
		}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.removeImage(post.Image)
		s.logger.Error("failed to create post",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("author", authorID),
		slog.String("title", post.Title()),
	)
	return post, nil
}

// authorize loads the post and checks that userID wrote it. A non-author
// gets apperror.ErrForbidden together with the post, so the caller can
// still redirect to it.
func (s *PostService) authorize(ctx context.Context, userID, postID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		s.logger.Debug("post change denied",
			slog.String("post", postID),
			slog.String("user", userID),
		)
		return post, apperror.Forbidden("only the author can change this post")
	}
	return post, nil
}

// Authorize reports whether userID may edit postID; see authorize.
func (s *PostService) Authorize(ctx context.Context, userID, postID string) (*model.Post, error) {
	return s.authorize(ctx, userID, postID)
}

// Update changes text, group and image. Author and publication date stay.
func (s *PostService) Update(ctx context.Context, userID, postID string, in PostInput) (*model.Post, error) {
	post, err := s.authorize(ctx, userID, postID)
	if err != nil {
		return post, err
	}
	text, err := validateText(in.Text)
	if err != nil {
		return post, err
	}

	oldImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	switch {
	case in.Image != nil:
		if post.Image, err = s.images.Save(in.Image); err != nil {
			return post, fmt.Errorf("saving image: %w", err)
		}
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(post.Image)
		}
		return post, fmt.Errorf("updating post: %w", err)
	}
	if oldImage != post.Image {
		s.removeImage(oldImage)
	}

	s.logger.Info("post updated", slog.String("id", post.ID))
	return post, nil
}

// SetGroup files postID under groupID, or takes it out of its group when
// groupID is nil. It is an operator action: there is no author check.
func (s *PostService) SetGroup(ctx context.Context, postID string, groupID *string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.GroupID = groupID
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("moving post: %w", err)
	}
	// re-read so Group reflects the new group
	if post, err = s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	group := ""
	if groupID != nil {
		group = *groupID
	}
	s.logger.Info("post group changed", slog.String("id", postID), slog.String("group", group))
	return post, nil
}

// Delete removes the post, its comments and its image file.
func (s *PostService) Delete(ctx context.Context, userID, postID string) (*model.Post, error) {
	post, err := s.authorize(ctx, userID, postID)
	if err != nil {
		return post, err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return post, fmt.Errorf("deleting post: %w", err)
	}
	s.removeImage(post.Image)

	s.logger.Info("post deleted", slog.String("id", post.ID), slog.String("author", userID))
	return post, nil
}

// AddComment attaches a comment by userID to postID.
func (s *PostService) AddComment(ctx context.Context, userID, postID, text string) (*model.Comment, error) {
	text, err := validateText(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("post", postID),
		slog.String("author", userID),
	)
	return comment, nil
}

func (s *PostService) removeImage(name string) {
	if name == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(name); err != nil {
		s.logger.Warn("failed to remove image",
			slog.String("image", name),
			slog.String("error", err.Error()),
		)
	}
}
