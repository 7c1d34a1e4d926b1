package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SequenceRepository hands out monotonically increasing sequence numbers per
// partition key.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// RowQuerier is the single method the sequence repository needs from
// *pgxpool.Pool.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sequenceRepository struct {
	db RowQuerier
}

func NewSequenceRepository(db RowQuerier) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	// Single-statement upsert, atomic without an explicit transaction.
	const query = `
INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (partition_key) DO UPDATE
SET last_sequence = event_sequences.last_sequence + 1,
    updated_at = NOW()
RETURNING last_sequence
`

	var next int64
	if err := r.db.QueryRow(ctx, query, partitionKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return next, nil
}
