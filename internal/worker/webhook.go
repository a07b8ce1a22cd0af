// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docpipe/internal/domain"
	"docpipe/internal/pipeline"
)

const (
	webhookRetryAttempts = 3
	webhookRetryBase     = 300 * time.Millisecond
	webhookHeaderSig     = "X-Signature"
)

type terminalWebhookPayload struct {
	DocumentID  string                `json:"document_id"`
	FinalStatus domain.DocumentStatus `json:"final_status"`
	Destination string                `json:"destination,omitempty"`
	Success     bool                  `json:"success"`
	FinishedAt  time.Time             `json:"finished_at"`
}

func (w *Worker) deliverTerminalWebhook(ctx context.Context, outcome pipeline.Outcome, finishedAt time.Time) {
	webhookURL := strings.TrimSpace(w.webhookURL)
	if webhookURL == "" || w.httpClient == nil {
		return
	}

	payload := terminalWebhookPayload{
		DocumentID:  outcome.DocumentID,
		FinalStatus: outcome.FinalStatus,
		Success:     outcome.Success,
		FinishedAt:  finishedAt,
	}
	if result, ok := outcome.Results[domain.StageRouter]; ok {
		payload.Destination = result.Destination
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("webhook payload marshal failed",
			"document_id", outcome.DocumentID,
			"final_status", outcome.FinalStatus,
			"error", err,
		)
		return
	}

	signature := signWebhookPayload(w.webhookSecret, body)

	var lastErr error
	for attempt := 1; attempt <= webhookRetryAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			lastErr = err
			w.logger.Error("webhook request build failed",
				"document_id", outcome.DocumentID,
				"attempt", attempt,
				"error", err,
			)
			break
		}
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set(webhookHeaderSig, signature)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("webhook failure",
				"document_id", outcome.DocumentID,
				"attempt", attempt,
				"error", err,
			)
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
				w.logger.Info("webhook success",
					"document_id", outcome.DocumentID,
					"attempt", attempt,
					"response_status", resp.StatusCode,
				)
				return
			}

			lastErr = fmt.Errorf("non-2xx response: %d", resp.StatusCode)
			w.logger.Warn("webhook failure",
				"document_id", outcome.DocumentID,
				"attempt", attempt,
				"response_status", resp.StatusCode,
			)
		}

		if attempt < webhookRetryAttempts {
			wait := webhookRetryBase * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				w.logger.Warn("webhook canceled before retry",
					"document_id", outcome.DocumentID,
					"attempt", attempt,
					"error", ctx.Err(),
				)
				return
			case <-timer.C:
			}
		}
	}

	if lastErr != nil {
		w.logger.Error("webhook retries exhausted",
			"document_id", outcome.DocumentID,
			"error", lastErr,
		)
	}
}

func signWebhookPayload(secret string, payload []byte) string {
	if strings.TrimSpace(secret) == "" {
		return ""
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
