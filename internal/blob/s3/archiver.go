package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ckartal/snipebot/internal/domain"
)

// HistorySource exposes the closed-trade history to be archived. The engine
// manager satisfies this.
type HistorySource interface {
	History() []domain.TradeRecord
}

// Archiver uploads the full closed-trade history as JSONL, one object per
// day. Re-archiving within the same day overwrites the day's object, so the
// slow archive tick is idempotent. Records are never deleted from the
// primary store here.
type Archiver struct {
	client *Client
	source HistorySource
	logger *slog.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver reading from source and writing to the
// client's bucket.
func NewArchiver(client *Client, source HistorySource, logger *slog.Logger) *Archiver {
	return &Archiver{
		client: client,
		source: source,
		logger: logger.With(slog.String("component", "archiver")),
		now:    time.Now,
	}
}

// Archive serializes the current history to JSONL and uploads it. An empty
// history is a no-op.
func (a *Archiver) Archive(ctx context.Context) error {
	history := a.source.History()
	if len(history) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range history {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("s3blob: encode trade %s: %w", rec.ID, err)
		}
	}

	key := fmt.Sprintf("trades/%s.jsonl", a.now().UTC().Format("2006/01/02"))
	_, err := a.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put %s: %w", key, err)
	}

	a.logger.InfoContext(ctx, "archiver: uploaded trade history",
		slog.String("key", key),
		slog.Int("trades", len(history)),
	)
	return nil
}
