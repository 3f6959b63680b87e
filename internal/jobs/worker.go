package jobs

import (
	"context"
	"fmt"

	"accountd/internal/identity"
	"accountd/internal/mailer"
	"accountd/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultConcurrency = 10

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	idp    identity.Provider
	sender mailer.Sender
	log    *logger.Logger
}

func NewWorker(redisURL, queue string, idp identity.Provider, sender mailer.Sender, log *logger.Logger) (*Worker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: defaultConcurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		idp:    idp,
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskVerificationEmail, w.handleVerificationEmail)

	return w, nil
}

func (w *Worker) handleVerificationEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVerificationEmailPayload(task)
	if err != nil {
		return err
	}

	link, err := w.idp.GenerateEmailVerificationLink(ctx, payload.Email, "")
	if err != nil {
		return fmt.Errorf("verification link for %s: %w", payload.Email, err)
	}

	if err := w.sender.SendVerificationEmail(ctx, payload.Email, link); err != nil {
		return fmt.Errorf("send verification email to %s: %w", payload.Email, err)
	}

	w.log.Info("verification email sent", "email", payload.Email)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("worker stopped", "error", err)
	}
}
