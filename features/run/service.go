package run

import (
	"context"
	"encoding/json"
	"fmt"

	"opslens/internal/config"
	"opslens/internal/ingest"
	"opslens/internal/middleware"
	"opslens/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Generator produces the synthetic daily files the loader ingests.
type Generator interface {
	Logs(date string, count int) (string, error)
	Tickets(date string, count int) (string, error)
}

type Service struct {
	repo      Repository
	pub       EventPublisher
	generator Generator
}

func NewService(repo Repository, pub EventPublisher, generator Generator) *Service {
	return &Service{repo: repo, pub: pub, generator: generator}
}

// Generate writes a synthetic daily file of the given kind and returns its path.
func (s *Service) Generate(kind, date string, count int) (string, error) {
	switch kind {
	case ingest.KindLogs:
		return s.generator.Logs(date, count)
	case ingest.KindTickets:
		return s.generator.Tickets(date, count)
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
}

// StartIngest records a queued run and publishes an ingest task for the
// worker to pick up.
func (s *Service) StartIngest(ctx context.Context, kind, collection string) (*Run, error) {
	run := &Run{
		Kind:       kind,
		Collection: collection,
		Status:     StatusQueued,
	}
	if err := s.repo.Save(ctx, run); err != nil {
		return nil, err
	}

	payload := worker.TaskPayload{
		RunID:         run.ID,
		Kind:          kind,
		Collection:    collection,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := s.pub.Publish(config.TopicIngestTask, body); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Service) List(ctx context.Context) ([]Run, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// MarkRunning, MarkCompleted and MarkFailed satisfy the worker's run updater.

func (s *Service) MarkRunning(ctx context.Context, id string) error {
	return s.repo.MarkRunning(ctx, id)
}

func (s *Service) MarkCompleted(ctx context.Context, id string, result ingest.RunResult) error {
	return s.repo.MarkCompleted(ctx, id, result.FilesIngested, result.FilesSkipped, result.FilesFailed, result.Documents)
}

func (s *Service) MarkFailed(ctx context.Context, id string, cause error) error {
	return s.repo.MarkFailed(ctx, id, cause.Error())
}
