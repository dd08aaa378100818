package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/metastore"
	"github.com/forPelevin/reelforge/internal/ports/adapters/gcs"
	"github.com/forPelevin/reelforge/internal/usecase"
)

// StoryService runs the story pipeline for the HTTP server and the story
// command. Requests are rendered one at a time.
type StoryService struct {
	app     *config.Config
	log     *slog.Logger
	uc      usecase.Usecase
	objects *gcs.Adapter
	store   *metastore.Store
	unlock  func() error

	mu sync.Mutex
}

func NewStoryService(ctx context.Context, app *config.Config, log *slog.Logger) (*StoryService, error) {
	log = logging.OrDiscard(log)
	if err := app.Validate(); err != nil {
		return nil, err
	}
	objects, err := newObjectStore(ctx, app)
	if err != nil {
		return nil, err
	}
	store, err := openVideoStore(app)
	if err != nil {
		if objects != nil {
			_ = objects.Close()
		}
		return nil, err
	}
	media := newMedia(app)
	cache, unlock, err := openAudioCache(ctx, app, media, log)
	if err != nil {
		_ = store.Close()
		if objects != nil {
			_ = objects.Close()
		}
		return nil, err
	}

	deps := usecase.Deps{
		Media:    media,
		Resolver: cache,
		Videos:   store,
		Logger:   log,
	}
	if objects != nil {
		deps.Objects = objects
	} else {
		log.Warn("no storage bucket configured, story videos stay local")
	}
	return &StoryService{
		app:     app,
		log:     log,
		uc:      usecase.New(deps),
		objects: objects,
		store:   store,
		unlock:  unlock,
	}, nil
}

func (s *StoryService) Generate(ctx context.Context, requestID, title, content string) (usecase.StoryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uc.Story(ctx, usecase.StoryInput{
		RequestID:  requestID,
		Title:      title,
		Content:    content,
		Policy:     policy(s.app),
		Background: s.app.Paths.BackgroundDir,
		OutDir:     filepath.Join(s.app.Paths.OutDir, "stories", requestID),
		Subtitles:  assOptions(s.app),
		PartLength: time.Duration(s.app.Render.PartSeconds) * time.Second,
		URLTTL:     s.urlTTL(),
	})
}

func (s *StoryService) Lookup(ctx context.Context, requestID string) (usecase.StoryResult, error) {
	return s.uc.GetVideo(ctx, requestID, s.urlTTL())
}

func (s *StoryService) urlTTL() time.Duration {
	return time.Duration(s.app.Storage.SignedURLTTLMinute) * time.Minute
}

func (s *StoryService) Close() error {
	var errs []error
	if s.unlock != nil {
		errs = append(errs, s.unlock())
	}
	errs = append(errs, s.store.Close())
	if s.objects != nil {
		errs = append(errs, s.objects.Close())
	}
	return errors.Join(errs...)
}
