package models

import "time"

// Follow представляет подписку одного пользователя на другого
type Follow struct {
	FollowerID string    `json:"follower_id"` // кто подписался
	FolloweeID string    `json:"followee_id"` // на кого подписался
	CreatedAt  time.Time `json:"created_at"`  // время подписки
}
