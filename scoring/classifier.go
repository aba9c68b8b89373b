package scoring

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"safezonex-be/models"
)

// Metadata carries the non-text report attributes a classifier may use.
type Metadata struct {
	EvidenceImages int                  `json:"evidenceImages"`
	Category       models.AlertCategory `json:"category"`
}

// Classifier scores report text. The heuristic engine is the default
// implementation; ExecClassifier shells out to an external model process.
type Classifier interface {
	Classify(ctx context.Context, text string, meta Metadata) (Result, error)
}

// HeuristicClassifier wraps the pure scoring function.
type HeuristicClassifier struct{}

func (HeuristicClassifier) Classify(_ context.Context, text string, meta Metadata) (Result, error) {
	return Score(text, meta.EvidenceImages, meta.Category), nil
}

// ExecClassifier invokes an external classifier process with a JSON request on
// stdin and expects a Result as JSON on stdout. On timeout, nonzero exit, or
// unparseable output it logs and falls back to the heuristic result with the
// status forced to needs_review, so a scorer outage degrades to manual review
// instead of dropping or mis-filing reports.
type ExecClassifier struct {
	Path    string
	Timeout time.Duration
	Logger  *zap.Logger
}

type execRequest struct {
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}

func (e *ExecClassifier) Classify(ctx context.Context, text string, meta Metadata) (Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(execRequest{Text: text, Meta: meta})
	if err != nil {
		return e.fallback(text, meta), nil
	}

	cmd := exec.CommandContext(ctx, e.Path)
	cmd.Stdin = strings.NewReader(string(payload))
	out, err := cmd.Output()
	if err != nil {
		e.Logger.Warn("external classifier failed, falling back to heuristic",
			zap.String("path", e.Path), zap.Error(err))
		return e.fallback(text, meta), nil
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		e.Logger.Warn("external classifier returned unparseable output",
			zap.String("path", e.Path), zap.Error(err))
		return e.fallback(text, meta), nil
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		e.Logger.Warn("external classifier returned out-of-range confidence",
			zap.Int("confidence", result.Confidence))
		return e.fallback(text, meta), nil
	}
	result.Status = result.Status.Canonical()
	return result, nil
}

func (e *ExecClassifier) fallback(text string, meta Metadata) Result {
	result := Score(text, meta.EvidenceImages, meta.Category)
	if !result.Status.Terminal() {
		result.Status = models.StatusNeedsReview
		result.Tag = "Needs Review"
	}
	return result
}
