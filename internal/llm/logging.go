package llm

import (
	"context"
	"time"

	"eduforge_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// LoggingGateway decorates a Gateway with structured logging and metrics.
type LoggingGateway struct {
	inner Gateway
	log   *zap.Logger
}

func WithLogging(g Gateway, log *zap.Logger) *LoggingGateway {
	return &LoggingGateway{inner: g, log: log}
}

func (l *LoggingGateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	resp, err := l.inner.Chat(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		monitoring.LLMRequests.WithLabelValues("chat", "error").Inc()
		l.log.Warn("llm chat failed",
			zap.String("model", l.inner.ModelID()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	monitoring.LLMRequests.WithLabelValues("chat", "ok").Inc()
	monitoring.LLMTokens.Add(float64(resp.Usage.TotalTokens))
	l.log.Debug("llm chat",
		zap.String("model", resp.Model),
		zap.Duration("elapsed", elapsed),
		zap.Int("toolCalls", len(resp.ToolCalls)),
		zap.Int("totalTokens", resp.Usage.TotalTokens),
	)
	return resp, nil
}

func (l *LoggingGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := l.inner.Embed(ctx, texts)

	if err != nil {
		monitoring.LLMRequests.WithLabelValues("embed", "error").Inc()
		l.log.Warn("llm embed failed", zap.Int("batch", len(texts)), zap.Error(err))
		return nil, err
	}

	monitoring.LLMRequests.WithLabelValues("embed", "ok").Inc()
	l.log.Debug("llm embed",
		zap.Int("batch", len(texts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return vectors, nil
}

func (l *LoggingGateway) ModelID() string { return l.inner.ModelID() }
