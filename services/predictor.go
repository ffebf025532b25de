package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"traffic-insight-api/config"

	"golang.org/x/sync/semaphore"
)

// PredictorResult is the normalized output of the external signal-timing
// model. Legacy deployments print a bare number of seconds; newer ones print
// this structure as JSON.
type PredictorResult struct {
	SignalTiming float64  `json:"signal_timing"`
	Confidence   *float64 `json:"confidence,omitempty"`
	ModelVersion string   `json:"model_version,omitempty"`
}

// SignalPredictor computes a signal-timing recommendation for a vehicle count.
type SignalPredictor interface {
	PredictSignalTiming(ctx context.Context, vehicleCount int) (PredictorResult, error)
}

// ProcessPredictor runs one short-lived external process per prediction,
// passing the vehicle count as the final argument. Every call carries a hard
// timeout, and the number of concurrently running processes is capped so a
// burst of ingests cannot fork-bomb the host.
type ProcessPredictor struct {
	command string
	args    []string
	timeout time.Duration
	sem     *semaphore.Weighted
}

func NewProcessPredictor(cfg config.PredictorConfig) *ProcessPredictor {
	return &ProcessPredictor{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

func (p *ProcessPredictor) PredictSignalTiming(ctx context.Context, vehicleCount int) (PredictorResult, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return PredictorResult{}, fmt.Errorf("waiting for predictor slot: %w", err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.args...), strconv.Itoa(vehicleCount))
	cmd := exec.CommandContext(ctx, p.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't let orphaned grandchildren holding the output pipes block Wait
	// past the deadline.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return PredictorResult{}, fmt.Errorf("predictor timed out after %s", p.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return PredictorResult{}, fmt.Errorf("predictor failed: %s", msg)
		}
		return PredictorResult{}, fmt.Errorf("predictor failed: %w", err)
	}

	return parsePredictorOutput(stdout.String())
}

// parsePredictorOutput accepts either a bare float (seconds) or a JSON
// PredictorResult on stdout.
func parsePredictorOutput(raw string) (PredictorResult, error) {
	out := strings.TrimSpace(raw)
	if out == "" {
		return PredictorResult{}, errors.New("predictor produced no output")
	}

	if seconds, err := strconv.ParseFloat(out, 64); err == nil {
		return PredictorResult{SignalTiming: seconds}, nil
	}

	var res PredictorResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return PredictorResult{}, fmt.Errorf("unparseable predictor output %q: %w", out, err)
	}
	if res.SignalTiming <= 0 {
		return PredictorResult{}, fmt.Errorf("predictor returned non-positive signal timing %v", res.SignalTiming)
	}
	return res, nil
}
