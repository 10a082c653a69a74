package model

import "time"

// RideStatusPending は配車リクエスト作成直後のステータス。
const RideStatusPending = "Pending"

// Ride は1件の配車リクエストを表す。
// Distance は任意で、省略された場合はnil。
// UserEmail はリクエスト時にログイン済みだった場合のみ設定され、
// usersテーブルとの整合性は検証しない。
type Ride struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Distance    *float64  `json:"distance,omitempty"`
	UserEmail   string    `json:"userEmail,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
