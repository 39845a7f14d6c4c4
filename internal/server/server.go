// Package server is the composition root: it opens the store and cache,
// builds services and handlers, mounts the routes and runs the HTTP
// server until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/cache"
	"github.com/sakif/yatube/internal/config"
	"github.com/sakif/yatube/internal/handler"
	"github.com/sakif/yatube/internal/media"
	"github.com/sakif/yatube/internal/middleware"
	sqliteRepo "github.com/sakif/yatube/internal/repository/sqlite"
	"github.com/sakif/yatube/internal/service"
)

// Server owns the router and the resources that must be closed on
// shutdown: the database and the page cache.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  cache.Store
}

// New opens the database, media directory and page cache, then wires
// every route. Resources opened before a failure are closed again.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newCacheStore(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening page cache: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		cache:  store,
	}
	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// newCacheStore uses Redis when REDIS_ADDR is set, so several server
// processes share one index cache; otherwise the cache is per process.
func newCacheStore(cfg config.Config) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// setupRoutes mounts the route table.
//
//	GET        /                               index (page cached)
//	GET        /group/{slug}/                  group posts
//	GET        /profile/{username}/            profile + follow state
//	GET        /posts/{id}/                    post + comments
//	GET, POST  /create/                        new post          (login)
//	GET, POST  /posts/{id}/edit/               edit post         (login, author)
//	GET, POST  /posts/{id}/delete/             delete post       (login, author)
//	GET, POST  /posts/{id}/comment/            add comment       (login)
//	GET        /follow/                        feed              (login)
//	GET, POST  /profile/{username}/follow/     follow            (login)
//	GET, POST  /profile/{username}/unfollow/   unfollow          (login)
//	GET        /about/author/, /about/tech/    static pages
//	GET, POST  /auth/signup/, /auth/login/, /auth/logout/
//	GET        /auth/github/login, /auth/github/callback (when configured)
//	GET        /media/*                        uploaded images
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	images, err := media.NewStorage(s.config.MediaDir)
	if err != nil {
		return err
	}

	users, groups, posts := s.db.Users(), s.db.Groups(), s.db.Posts()
	comments, follows := s.db.Comments(), s.db.Follows()

	followService := service.NewFollowService(users, follows, s.logger)
	postService := service.NewPostService(service.PostServiceDeps{
		Posts:    posts,
		Comments: comments,
		Groups:   groups,
		Users:    users,
		Follows:  followService,
		Images:   images,
		PageSize: s.config.PageSize,
	}, s.logger)
	groupService := service.NewGroupService(groups, s.logger)
	accountService := service.NewAccountService(users, tokens, passwords, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	postHandler := handler.NewPostHandler(postService, groupService, accountService, s.config.MaxUploadBytes(), s.logger)
	followHandler := handler.NewFollowHandler(followService, s.logger)
	authHandler := handler.NewAuthHandler(accountService, tokens, handler.AuthHandlerConfig{
		LoginURL:      s.config.LoginURL,
		SecureCookies: s.config.SecureCookies,
		GitHub:        github,
	}, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.OptionalAuth(tokens, accountService))
	r.Use(middleware.Logger(s.logger))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.With(middleware.CachePage(s.cache, s.config.IndexCacheTTL, s.logger)).Get("/", postHandler.Index)
	r.Get("/group/{slug}/", postHandler.GroupPosts)
	r.Get("/profile/{username}/", postHandler.Profile)
	r.Get("/posts/{id}/", postHandler.Detail)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.config.LoginURL))

		r.Get("/follow/", postHandler.Feed)
		getPost(r, "/create/", postHandler.Create)
		getPost(r, "/posts/{id}/edit/", postHandler.Edit)
		getPost(r, "/posts/{id}/delete/", postHandler.Delete)
		getPost(r, "/posts/{id}/comment/", postHandler.AddComment)
		getPost(r, "/profile/{username}/follow/", followHandler.Follow)
		getPost(r, "/profile/{username}/unfollow/", followHandler.Unfollow)
	})

	r.Get("/about/author/", handler.AboutAuthor)
	r.Get("/about/tech/", handler.AboutTech)

	r.Route("/auth", func(r chi.Router) {
		getPost(r, "/signup/", authHandler.Signup)
		getPost(r, "/login/", authHandler.Login)
		getPost(r, "/logout/", authHandler.Logout)
		if github != nil {
			r.Get("/github/login", authHandler.GitHubLogin)
			r.Get("/github/callback", authHandler.GitHubCallback)
		}
	})

	fileServer := http.FileServer(http.Dir(images.Root()))
	r.Handle("/media/*", http.StripPrefix(media.URLPrefix, fileServer))

	return nil
}

// getPost mounts h for GET and POST. Mutations answer GET too so plain
// links (follow, delete) keep working.
func getPost(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the cache and the database.
func (s *Server) Close() error {
	return errors.Join(s.cache.Close(), s.db.Close())
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store and cache.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("redisCache", s.config.RedisAddr != ""),
			slog.Bool("githubLogin", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
