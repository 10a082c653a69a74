package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/quickride/internal/model"
)

// PostgresRideRepo はPostgreSQLを使用した配車リクエストリポジトリ。
type PostgresRideRepo struct {
	db *sql.DB
}

// NewPostgresRideRepo はPostgresRideRepoを生成する。
func NewPostgresRideRepo(db *sql.DB) *PostgresRideRepo {
	return &PostgresRideRepo{db: db}
}

// Create は配車リクエストを作成する。
// Distanceがnil、UserEmailが空の場合はそれぞれNULLとして保存する。
func (r *PostgresRideRepo) Create(ctx context.Context, ride *model.Ride) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rides (id, destination, distance, user_email, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ride.ID, ride.Destination, nullFloat64(ride.Distance), nullString(ride.UserEmail), ride.Status, ride.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

// FindByID は指定IDの配車リクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresRideRepo) FindByID(ctx context.Context, id string) (*model.Ride, error) {
	ride := &model.Ride{}
	var distance sql.NullFloat64
	var userEmail sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, destination, distance, user_email, status, created_at FROM rides WHERE id = $1`,
		id,
	).Scan(&ride.ID, &ride.Destination, &distance, &userEmail, &ride.Status, &ride.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ride by ID: %w", err)
	}

	if distance.Valid {
		ride.Distance = &distance.Float64
	}
	ride.UserEmail = userEmail.String
	return ride, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// compile-time interface check
var _ RideRepository = (*PostgresRideRepo)(nil)
