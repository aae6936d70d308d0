package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"homework-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// ProfileCache is a read-through cache in front of the profile store. All
// methods are safe on a nil receiver, so callers can wire it only when Redis
// is configured. Cache failures degrade to misses; they never surface.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(address, password string, db int, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ProfileCache{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func profileKey(studentID string) string {
	return "student_profile:" + studentID
}

func (c *ProfileCache) Get(ctx context.Context, studentID string) (*models.StudentProfile, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, profileKey(studentID)).Bytes()
	if err != nil {
		return nil, false
	}
	var profile models.StudentProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) Set(ctx context.Context, profile *models.StudentProfile) {
	if c == nil || profile == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKey(profile.StudentID), raw, c.ttl).Err(); err != nil {
		log.Printf("profile cache write failed for student %s: %v", profile.StudentID, err)
	}
}

func (c *ProfileCache) Invalidate(ctx context.Context, studentID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, profileKey(studentID)).Err(); err != nil {
		log.Printf("profile cache invalidate failed for student %s: %v", studentID, err)
	}
}
