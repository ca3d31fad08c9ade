package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"go.uber.org/zap"
)

// ErrSubmissionFailed covers every sink failure: transport, non-2xx status,
// malformed body and an explicit success=false.
var ErrSubmissionFailed = errors.New("baseline submission failed")

type BaselineSink interface {
	Submit(ctx context.Context, submission models.BaselineSubmission) error
}

// LogSink logs each payload and always accepts it. Nothing is stored.
type LogSink struct {
	log *zap.Logger
	now func() time.Time
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log, now: time.Now}
}

func (s *LogSink) Submit(_ context.Context, submission models.BaselineSubmission) error {
	s.Record(submission)
	return nil
}

// Record stamps the payload with its receive time and logs it.
func (s *LogSink) Record(submission models.BaselineSubmission) models.BaselineRecord {
	record := models.BaselineRecord{
		BaselineSubmission: submission,
		ReceivedAt:         s.now().UTC(),
	}

	s.log.Info("baseline onboarding payload",
		zap.Float64p("weight_kg", record.WeightKG),
		zap.Float64p("avg_sleep_hours", record.AvgSleepHours),
		zap.Stringp("notes", record.Notes),
		zap.String("plan", record.Plan),
		zap.Time("received_at", record.ReceivedAt),
	)
	return record
}

// HTTPSink posts submissions to an external sink speaking the baseline
// request/response contract. One attempt per call, no retry.
type HTTPSink struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Submit(ctx context.Context, submission models.BaselineSubmission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrSubmissionFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d: %s", ErrSubmissionFailed, resp.StatusCode, strings.TrimSpace(truncate(string(raw), 256)))
	}

	var decoded models.SinkResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrSubmissionFailed, err)
	}
	if decoded.Success == nil || !*decoded.Success {
		return fmt.Errorf("%w: sink reported failure", ErrSubmissionFailed)
	}

	return nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
