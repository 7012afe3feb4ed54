package vits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ekisa-team/speechgate/internal/backend"
)

const maxErrorBody = 4 << 10

type forwardRequest struct {
	InputIDs []int64 `json:"input_ids"`
}

type forwardResponse struct {
	Waveform     []float32 `json:"waveform"`
	SamplingRate int       `json:"sampling_rate"`
}

// RunnerModel forwards input ids to a runner process over HTTP.
type RunnerModel struct {
	client     *http.Client
	stop       func() error
	baseURL    string
	sampleRate int
}

var _ backend.Model = (*RunnerModel)(nil)

// NewRunnerModel creates a model client for the runner at baseURL.
// sampleRate is reported when the runner response omits it. stop is called
// by Close and may be nil.
func NewRunnerModel(client *http.Client, baseURL string, sampleRate int, stop func() error) *RunnerModel {
	if client == nil {
		client = http.DefaultClient
	}

	return &RunnerModel{
		client:     client,
		stop:       stop,
		baseURL:    baseURL,
		sampleRate: sampleRate,
	}
}

// Forward runs one forward pass.
func (m *RunnerModel) Forward(ctx context.Context, ids []int64) (*backend.Waveform, error) {
	body, err := json.Marshal(forwardRequest{InputIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encode forward request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/forward", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runner forward: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("runner forward: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out forwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forward response: %w", err)
	}

	sr := out.SamplingRate
	if sr <= 0 {
		sr = m.sampleRate
	}

	return &backend.Waveform{Samples: out.Waveform, SampleRate: sr}, nil
}

// Close stops the runner.
func (m *RunnerModel) Close() error {
	if m.stop == nil {
		return nil
	}

	return m.stop()
}
