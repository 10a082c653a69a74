// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/quickride/internal/model"
)

// ErrDuplicateEmail は一意制約によりユーザー作成が拒否された場合に返す。
// 事前の存在確認とINSERTの間に競合した登録があった場合に発生する。
var ErrDuplicateEmail = errors.New("duplicate email")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// RideRepository は配車リクエストの永続化インターフェース。
type RideRepository interface {
	// Create は配車リクエストを作成する。
	Create(ctx context.Context, ride *model.Ride) error

	// FindByID は指定IDの配車リクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ride, error)
}
