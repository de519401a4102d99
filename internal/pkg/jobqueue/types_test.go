package jobqueue

import (
	"testing"
	"time"
)

func TestJobStateTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeEmailNotification,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	if job.Status != JobStatusProcessing {
		t.Errorf("expected status %s, got %s", JobStatusProcessing, job.Status)
	}
	if job.ProcessedAt == nil {
		t.Error("expected ProcessedAt to be set")
	}

	job.MarkAsFailed("smtp timeout")
	if job.Status != JobStatusFailed {
		t.Errorf("expected status %s, got %s", JobStatusFailed, job.Status)
	}
	if job.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", job.RetryCount)
	}
	if !job.IsRetryable() {
		t.Error("job with one failure should be retryable")
	}

	job.RetryCount = DefaultMaxRetries
	if job.IsRetryable() {
		t.Error("job at max retries should not be retryable")
	}

	job.MarkAsCompleted()
	if job.Status != JobStatusCompleted {
		t.Errorf("expected status %s, got %s", JobStatusCompleted, job.Status)
	}
	if job.ErrorMsg != "" {
		t.Errorf("completed job should have empty error, got %q", job.ErrorMsg)
	}
	if job.CompletedAt == nil || job.CompletedAt.Before(time.Now().Add(-time.Minute)) {
		t.Error("expected recent CompletedAt")
	}
}

func TestEmailNotificationPayloadRoundTrip(t *testing.T) {
	payload := EmailNotificationJobPayload{
		UserID:  42,
		To:      "driver@example.com",
		Subject: "Payment received",
		Body:    "<p>Your FASTag payment is confirmed.</p>",
	}

	restored, err := EmailNotificationJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("FromMap returned error: %v", err)
	}
	if *restored != payload {
		t.Errorf("payload mismatch: got %+v, want %+v", *restored, payload)
	}
}

func TestDocumentPreviewPayloadRoundTrip(t *testing.T) {
	payload := DocumentPreviewJobPayload{
		DocumentID:   7,
		DocumentUUID: "b7c9e4d2",
		ObjectKey:    "kyc/2026/08/app-uuid/doc-uuid.jpg",
	}

	restored, err := DocumentPreviewJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("FromMap returned error: %v", err)
	}
	if *restored != payload {
		t.Errorf("payload mismatch: got %+v, want %+v", *restored, payload)
	}
}
