package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/util"
)

// Runner abstracts the agent runtime for the services.
type Runner interface {
	Run(ctx context.Context, spec agent.Spec) (json.RawMessage, error)
}

type CompositionRequest struct {
	CourseID    uint   `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Feedback    string `json:"feedback,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	MaxTopics   int    `json:"maxTopics,omitempty"`
}

// CompositionConfig carries the tunables of the composition agent.
type CompositionConfig struct {
	MaxIterations    int
	MaxTopics        int
	RetryMaxAttempts int
	RetryBase        time.Duration
	RetryMaxWait     time.Duration
}

func DefaultCompositionConfig() CompositionConfig {
	return CompositionConfig{
		MaxIterations:    40,
		MaxTopics:        8,
		RetryMaxAttempts: 3,
		RetryBase:        2 * time.Second,
		RetryMaxWait:     10 * time.Second,
	}
}

// CompositionService drives the course composition agent and writes its
// drafts into the draft store.
type CompositionService struct {
	runner Runner
	drafts draft.Store
	cfg    CompositionConfig
	log    *zap.Logger
}

func NewCompositionService(runner Runner, drafts draft.Store, cfg CompositionConfig, log *zap.Logger) *CompositionService {
	if cfg.MaxIterations <= 0 {
		cfg = DefaultCompositionConfig()
	}
	return &CompositionService{runner: runner, drafts: drafts, cfg: cfg, log: log}
}

// Compose runs the composition agent for the course and upserts the
// resulting draft. Returns the draft and the session id used; re-invocation
// with the same session id replays prior turns and overwrites the draft.
// Nothing is written on failure.
func (s *CompositionService) Compose(ctx context.Context, req CompositionRequest) (*draft.CourseDraft, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	if req.MaxTopics <= 0 {
		req.MaxTopics = s.cfg.MaxTopics
	}

	var d *draft.CourseDraft
	var lastErr error
	for attempt := 0; attempt < s.cfg.RetryMaxAttempts; attempt++ {
		d, lastErr = s.compose(ctx, req)
		if lastErr == nil {
			break
		}
		if !transientComposition(lastErr) || attempt == s.cfg.RetryMaxAttempts-1 {
			break
		}
		wait := s.cfg.RetryBase << attempt
		if wait > s.cfg.RetryMaxWait {
			wait = s.cfg.RetryMaxWait
		}
		s.log.Warn("composition attempt failed",
			zap.Uint("courseId", req.CourseID),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrComposition, lastErr)
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrComposition, err)
	}
	s.log.Info("course draft composed",
		zap.Uint("courseId", req.CourseID),
		zap.String("sessionId", d.SessionID),
		zap.Int("topics", len(d.Topics)))
	return d, nil
}

func (s *CompositionService) compose(ctx context.Context, req CompositionRequest) (*draft.CourseDraft, error) {
	out, err := s.runner.Run(ctx, agent.Spec{
		Kind:          agent.KindComposition,
		SystemPrompt:  compositionSystemPrompt,
		UserPrompt:    compositionUserPrompt(req),
		Tools:         []string{"retrieve"},
		MaxIterations: s.cfg.MaxIterations,
		OutputSchema:  CourseDraftSchema,
		Profile:       llm.ProfileDeterministic,
		SessionID:     req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	var d draft.CourseDraft
	if err := json.Unmarshal(out, &d); err != nil {
		return nil, fmt.Errorf("decode course draft: %w", err)
	}
	if len(d.Topics) > req.MaxTopics {
		return nil, fmt.Errorf("draft has %d topics, maximum is %d", len(d.Topics), req.MaxTopics)
	}

	d.CourseID = req.CourseID
	d.SessionID = req.SessionID
	normalizeTopicOrder(&d)

	// The decoded payload must match the kind that produced it before it
	// crosses the service boundary.
	res := AgentResult{Kind: agent.KindComposition, Draft: &d}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res.Draft, nil
}

// normalizeTopicOrder sorts topics by their declared order and renumbers
// them 1..N.
func normalizeTopicOrder(d *draft.CourseDraft) {
	sort.SliceStable(d.Topics, func(i, j int) bool {
		return d.Topics[i].Order < d.Topics[j].Order
	})
	for i := range d.Topics {
		d.Topics[i].Order = i + 1
	}
}

// transientComposition reports whether the failure is worth another attempt.
func transientComposition(err error) bool {
	var rate *llm.ErrRateLimit
	var unavailable *llm.ErrUnavailable
	var exhausted *llm.ErrModelUnavailable
	var embedding *llm.ErrEmbedding
	return errors.As(err, &rate) ||
		errors.As(err, &unavailable) ||
		errors.As(err, &exhausted) ||
		errors.As(err, &embedding)
}
