package service

import (
	"context"
	"encoding/json"
	"fmt"

	"fintech_index/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MailJob is the payload pushed onto the Redis mail queue and consumed by
// the mail worker.
type MailJob struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type MailService struct {
	rdb *redis.Client
}

func NewMailService(rdb *redis.Client) *MailService {
	return &MailService{rdb: rdb}
}

// EnqueueVerificationEmail queues the "account verified" notification. The
// admin-facing verify call does not wait for SMTP delivery.
func (s *MailService) EnqueueVerificationEmail(ctx context.Context, to string) error {
	if s.rdb == nil {
		return nil
	}
	job := MailJob{
		ID:      uuid.NewString(),
		To:      to,
		Subject: "Your account has been verified",
		Body:    "You can now log in to the African Fintech Index platform.",
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}
	if err := s.rdb.LPush(ctx, config.AppConfig.MailQueueName, payload).Err(); err != nil {
		return fmt.Errorf("failed to push mail job to Redis queue: %w", err)
	}
	return nil
}
