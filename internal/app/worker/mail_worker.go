package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"time"

	"fintech_index/internal/app/service"
	"fintech_index/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// MailWorker drains the verification mail queue and delivers over SMTP.
// A failed delivery is requeued once, then dropped with a log line.
type MailWorker struct {
	rdb *redis.Client
}

func NewMailWorker(rdb *redis.Client) *MailWorker {
	return &MailWorker{rdb: rdb}
}

type queuedJob struct {
	service.MailJob
	Attempts int `json:"attempts,omitempty"`
}

func (w *MailWorker) Start(ctx context.Context) {
	log.Println("Mail worker started, listening to queue:", config.AppConfig.MailQueueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Mail worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 5*time.Second, config.AppConfig.MailQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Printf("ERROR: failed to BRPop from queue '%s': %v", config.AppConfig.MailQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}
			if len(res) < 2 || res[1] == "" {
				continue
			}

			var job queuedJob
			if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
				log.Printf("ERROR: dropping malformed mail job: %v", err)
				continue
			}

			if err := w.send(job.MailJob); err != nil {
				if job.Attempts >= 1 {
					log.Printf("ERROR: mail job %s to %s failed twice, dropping: %v", job.ID, job.To, err)
					continue
				}
				log.Printf("WARN: mail job %s failed, requeueing: %v", job.ID, err)
				job.Attempts++
				w.requeue(ctx, job)
				continue
			}
			log.Printf("Mail job %s delivered to %s", job.ID, job.To)
		}
	}
}

func (w *MailWorker) send(job service.MailJob) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	msg := []byte("From: " + cfg.SMTPFrom + "\r\n" +
		"To: " + job.To + "\r\n" +
		"Subject: " + job.Subject + "\r\n" +
		"\r\n" +
		job.Body + "\r\n")

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{job.To}, msg)
}

func (w *MailWorker) requeue(ctx context.Context, job queuedJob) {
	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("ERROR: failed to marshal mail job for requeue: %v", err)
		return
	}
	if err := w.rdb.LPush(ctx, config.AppConfig.MailQueueName, payload).Err(); err != nil {
		log.Printf("ERROR: failed to requeue mail job %s: %v", job.ID, err)
	}
}
