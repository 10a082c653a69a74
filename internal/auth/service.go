// Package auth はユーザー登録とメールアドレス・パスワードによるログインを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/quickride/internal/model"
	"github.com/hitoshi/quickride/internal/repository"
)

// Recorder は認証イベントのメトリクス記録インターフェース。
type Recorder interface {
	RecordUserRegistered()
	RecordLoginFailure()
}

// RegisterInput はユーザー登録の入力。Nameは任意。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Result は登録・ログイン成功時の結果。
// Tokenはトークン発行が無効な場合は空文字列になる。
type Result struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	issuer   *TokenIssuer
	recorder Recorder
}

// NewService はServiceを生成する。
// issuerがnilの場合はトークンを発行しない。recorderがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer *TokenIssuer,
	recorder Recorder,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		recorder: recorder,
	}
}

// Register はユーザーを登録する。
// メールアドレスまたはパスワードが空の場合はバリデーションエラー、
// 同じメールアドレスのユーザーが存在する場合は競合エラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if in.Email == "" || in.Password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserExistsError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, ErrPasswordTooLong) {
		return nil, model.NewValidationError("Password must be at most 72 bytes")
	}
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 存在確認とINSERTの間に同じメールアドレスで登録された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewUserExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recorder.RecordUserRegistered()
	slog.Info("user registered", slog.String("user_id", user.ID))

	return s.result(user)
}

// Login はメールアドレスとパスワードでユーザーを認証する。
// 未登録のメールアドレスとパスワード不一致は同じ認証エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	if email == "" || password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recorder.RecordLoginFailure()
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			// 保存済みハッシュの破損など。呼び出し側には不一致と同じ応答を返す
			slog.Warn("password comparison failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.recorder.RecordLoginFailure()
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return s.result(user)
}

// result はユーザーにトークンを付与した結果を組み立てる。
func (s *Service) result(user *model.User) (*Result, error) {
	res := &Result{User: user}
	if s.issuer == nil {
		return res, nil
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	res.Token = token
	return res, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordUserRegistered() {}
func (noopRecorder) RecordLoginFailure()   {}
