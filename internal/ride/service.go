// Package ride は配車リクエストのドメインロジックを提供する。
package ride

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/quickride/internal/model"
	"github.com/hitoshi/quickride/internal/repository"
)

// Recorder は配車リクエスト作成のメトリクス記録インターフェース。
type Recorder interface {
	RecordRideCreated()
}

// CreateInput は配車リクエスト作成の入力。
// Destinationは空文字列でも受け付ける。DistanceとUserEmailは任意。
type CreateInput struct {
	Destination string
	Distance    *float64
	UserEmail   string
}

// Service は配車リクエストのサービス層。
type Service struct {
	repo     repository.RideRepository
	recorder Recorder
}

// NewService はServiceを生成する。recorderがnilの場合はメトリクスを記録しない。
func NewService(repo repository.RideRepository, recorder Recorder) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
	}
}

// Create は配車リクエストを保存し、ID・ステータス・作成日時を含む保存済みレコードを返す。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Ride, error) {
	r := &model.Ride{
		ID:          uuid.New().String(),
		Destination: in.Destination,
		Distance:    in.Distance,
		UserEmail:   in.UserEmail,
		Status:      model.RideStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordRideCreated()
	}

	attrs := []any{slog.String("ride_id", r.ID)}
	if r.UserEmail != "" {
		attrs = append(attrs, slog.Bool("logged_in", true))
	}
	slog.Info("ride requested", attrs...)

	return r, nil
}

// Get は指定IDの配車リクエストを取得する。見つからない場合はnilを返す。
// UUID形式でないIDはストレージに問い合わせずに未検出として扱う。
func (s *Service) Get(ctx context.Context, id string) (*model.Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return r, nil
}
