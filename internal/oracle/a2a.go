package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/a2a"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Judge = (*A2AJudge)(nil)

const a2aBackend = "a2a"

// Failure is the payload a judge agent attaches to a failed task so that the
// caller can recover the failure kind.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// A2AJudge delegates comparisons to a remote judge agent over the A2A
// protocol. The request travels as a data part of a blocking message/send.
type A2AJudge struct {
	client   a2a.Client
	endpoint string
	logger   *zap.Logger
}

// NewA2AJudge creates a judge that talks to the agent at endpoint.
func NewA2AJudge(client a2a.Client, endpoint string, logger *zap.Logger) *A2AJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &A2AJudge{client: client, endpoint: endpoint, logger: logger}
}

// Judge sends req to the agent and reads the verdict from the returned task.
func (j *A2AJudge) Judge(ctx context.Context, req Request) (bool, error) {
	part, err := a2a.DataPart(req)
	if err != nil {
		return false, fmt.Errorf("oracle: encode request: %w", err)
	}

	task, err := j.client.SendMessage(ctx, j.endpoint, a2a.SendMessageRequest{
		Message: a2a.Message{
			MessageID: uuid.NewString(),
			Role:      a2a.RoleUser,
			Parts:     []a2a.Part{part},
		},
		Configuration: &a2a.SendMessageConfig{Blocking: true},
	})
	if err != nil {
		j.logger.Error("judge agent call failed", zap.String("endpoint", j.endpoint), zap.Error(err))
		kind, status := transportKind(err)
		return false, newError(kind, a2aBackend, status, "", err)
	}

	result, err := verdictFromTask(task)
	if err != nil {
		return false, err
	}
	j.logger.Debug("judge verdict",
		zap.String("backend", a2aBackend),
		zap.String("task", task.ID),
		zap.Bool("result", result))
	return result, nil
}

// transportKind classifies a failed agent call. HTTP statuses follow the same
// rules as the HTTP backends; a rejected request body is invalid input.
func transportKind(err error) (ErrorKind, int) {
	var herr *a2a.HTTPError
	if errors.As(err, &herr) {
		return statusKind(herr.Status), herr.Status
	}
	var rerr *a2a.RPCError
	if errors.As(err, &rerr) && rerr.Code == a2a.ErrCodeInvalidParams {
		return KindInvalidInput, 0
	}
	return KindUnavailable, 0
}

// verdictFromTask interprets the terminal state of a judge task.
func verdictFromTask(task *a2a.Task) (bool, error) {
	if task == nil {
		return false, newError(KindMalformed, a2aBackend, 0, "no task returned", nil)
	}

	switch task.Status.State {
	case a2a.TaskStateCompleted:
		for _, art := range task.Artifacts {
			for _, p := range art.Parts {
				raw := p.Text
				if len(p.Data) > 0 {
					raw = string(p.Data)
				}
				if raw == "" {
					continue
				}
				result, err := ParseVerdict(raw)
				if err != nil {
					return false, newError(KindMalformed, a2aBackend, 0, "task "+task.ID, err)
				}
				return result, nil
			}
		}
		return false, newError(KindMalformed, a2aBackend, 0, "completed task has no verdict", nil)

	case a2a.TaskStateFailed:
		f := taskFailure(task)
		return false, newError(f.Kind, a2aBackend, 0, f.Message, nil)

	case a2a.TaskStateAuthRequired:
		return false, newError(KindCredentials, a2aBackend, 0, "agent requires authentication", nil)

	case a2a.TaskStateRejected:
		return false, newError(KindInvalidInput, a2aBackend, 0, "agent rejected the comparison", nil)

	case a2a.TaskStateCanceled:
		return false, newError(KindUnavailable, a2aBackend, 0, "task canceled", nil)

	default:
		return false, newError(KindMalformed, a2aBackend, 0, fmt.Sprintf("task %s not terminal: %q", task.ID, task.Status.State), nil)
	}
}

// taskFailure extracts the Failure payload from a failed task's status
// message, defaulting to unavailability.
func taskFailure(task *a2a.Task) Failure {
	f := Failure{Kind: KindUnavailable, Message: "task failed"}
	if task.Status.Message == nil {
		return f
	}
	for _, p := range task.Status.Message.Parts {
		if len(p.Data) > 0 {
			var decoded Failure
			if err := json.Unmarshal(p.Data, &decoded); err == nil {
				decoded.Kind = ParseErrorKind(string(decoded.Kind))
				return decoded
			}
		}
		if p.Text != "" {
			f.Message = p.Text
		}
	}
	return f
}
