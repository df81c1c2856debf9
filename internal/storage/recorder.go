package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"neuraswap/internal/model"
)

// Recorder stamps activity records and appends them to a journal. Journal failures
// are logged, never returned: the transaction is already on chain.
type Recorder struct {
	journal Journal
	chainID uint64
	now     func() time.Time
	logger  *zap.Logger
}

func NewRecorder(journal Journal, chainID uint64, logger *zap.Logger) *Recorder {
	if journal == nil {
		journal = Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{journal: journal, chainID: chainID, now: time.Now, logger: logger}
}

// Record appends records, filling chain id and timestamp.
func (r *Recorder) Record(ctx context.Context, records ...model.ActivityRecord) {
	if r == nil || len(records) == 0 {
		return
	}
	stamp := r.now().UTC().Format(time.RFC3339Nano)
	for i := range records {
		if records[i].ChainID == 0 {
			records[i].ChainID = r.chainID
		}
		if records[i].RecordedAt == "" {
			records[i].RecordedAt = stamp
		}
	}
	if err := r.journal.Append(ctx, records); err != nil {
		r.logger.Warn("journal append failed",
			zap.String("tx_hash", records[0].TxHash),
			zap.String("kind", records[0].Kind),
			zap.Error(err),
		)
	}
}
