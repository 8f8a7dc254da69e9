package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/a2a"
	"github.com/dusk-indust/judgesort/internal/oracle"
)

// JudgeSkillID is the skill a judge agent advertises.
const JudgeSkillID = "compare"

// JudgeCard describes a judge agent served at url.
func JudgeCard(name, version, url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:        name,
		Description: "Answers whether the first value should be placed at or before the second value under an instruction.",
		Version:     version,
		URL:         url,
		Skills: []a2a.AgentSkill{
			{
				ID:          JudgeSkillID,
				Name:        "Pairwise comparison",
				Description: `Send {"model","systemInstruction","userMessage"} as a data part; the verdict artifact holds {"result": bool}.`,
				Tags:        []string{"sort", "compare", "judge"},
			},
		},
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json"},
	}
}

// JudgeAgent serves an oracle.Judge over A2A. Each comparison is one task
// whose completed form carries a verdict artifact and whose failed form
// carries an oracle.Failure payload.
type JudgeAgent struct {
	*BaseAgent
	judge oracle.Judge
}

// NewJudgeAgent wraps judge in an agent described by card.
func NewJudgeAgent(card a2a.AgentCard, judge oracle.Judge, opts ...Option) *JudgeAgent {
	j := &JudgeAgent{judge: judge}
	opts = append([]Option{WithFailureFunc(failureMessage)}, opts...)
	j.BaseAgent = NewBaseAgent(card, j.process, opts...)
	return j
}

func (j *JudgeAgent) process(ctx context.Context, task *a2a.Task, msg a2a.Message) ([]a2a.Artifact, error) {
	req, err := decodeRequest(msg)
	if err != nil {
		return nil, err
	}

	result, err := j.judge.Judge(ctx, req)
	if err != nil {
		return nil, err
	}

	part, err := a2a.DataPart(oracle.Verdict{Result: result})
	if err != nil {
		return nil, fmt.Errorf("encode verdict: %w", err)
	}
	return []a2a.Artifact{{
		ArtifactID: task.ID + "-verdict",
		Name:       "verdict",
		Parts:      []a2a.Part{part},
	}}, nil
}

// decodeRequest reads the comparison request from the first data part.
func decodeRequest(msg a2a.Message) (oracle.Request, error) {
	for _, p := range msg.Parts {
		var req oracle.Request
		err := p.Decode(&req)
		if errors.Is(err, a2a.ErrNoData) {
			continue
		}
		if err != nil {
			return oracle.Request{}, fmt.Errorf("%w: decode request: %v", oracle.ErrInvalidInput, err)
		}
		if req.UserMessage == "" {
			return oracle.Request{}, fmt.Errorf("%w: request has no user message", oracle.ErrInvalidInput)
		}
		return req, nil
	}
	return oracle.Request{}, fmt.Errorf("%w: message has no data part", oracle.ErrInvalidInput)
}

func failureMessage(err error) a2a.Message {
	f := oracle.Failure{Kind: oracle.KindOf(err), Message: err.Error()}
	part, encErr := a2a.DataPart(f)
	if encErr != nil {
		return textFailure(err)
	}
	return a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{part, a2a.TextPart(err.Error())}}
}
