package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVerificationEmail = "account.verification_email"

type VerificationEmailPayload struct {
	Email string `json:"email"`
}

func NewVerificationEmailTask(payload VerificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerificationEmail, data), nil
}

func ParseVerificationEmailPayload(task *asynq.Task) (VerificationEmailPayload, error) {
	var payload VerificationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VerificationEmailPayload{}, err
	}
	return payload, nil
}
