// This file implements a generic, batched loader that drains typed rows from
// a channel and invokes a provided bulk-insert function (CopyFn) per batch.
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"phenoextract/internal/ddl"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns' order) and return the number of
// rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains typed rows from 'in', groups them into batches of size
// 'batchSize', and calls 'copyFn' for each non-empty batch. It returns the
// total number of rows reported by copyFn and the first error encountered.
//
// Cancellation: returns (total, ctx.Err()) when canceled.
func LoadBatches(
	ctx context.Context,
	log *slog.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n

		// Batches are handed to copyFn synchronously, so the backing array
		// can be reused.
		batch = batch[:0]

		if err != nil {
			log.Error("loader: copy failed", "after", n, "total", total, "err", err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Debug(fmt.Sprintf("batch #%d", batches),
			"rps", int64(rps),
			"inserted", n,
			"total_inserted", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
			"since_last", sinceLast.Truncate(time.Millisecond))
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// DefaultBatchSize is the number of rows per CopyFrom call used by Load.
const DefaultBatchSize = 5000

// Load recreates td in repo and streams the rows produced by produce into it.
// produce calls emit once per row with values aligned to td.Columns; values
// are converted with the repository dialect before insertion.
func Load(ctx context.Context, log *slog.Logger, repo Repository, td ddl.TableDef, produce func(emit func([]any) error) error) (int64, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := EnsureTable(ctx, repo, td); err != nil {
		return 0, err
	}
	d := repo.Dialect()
	columns := td.ColumnNames()

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, DefaultBatchSize)

	g.Go(func() error {
		defer close(rows)
		return produce(func(vals []any) error {
			out := make([]any, len(vals))
			for i, v := range vals {
				out[i] = d.Convert(td.Columns[i].Kind, v)
			}
			select {
			case rows <- out:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var total int64
	g.Go(func() error {
		n, err := LoadBatches(gctx, log.With("table", td.FQN), columns, rows, DefaultBatchSize,
			func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
				return repo.CopyFrom(ctx, td.FQN, cols, batch)
			})
		total = n
		return err
	})

	if err := g.Wait(); err != nil {
		return total, fmt.Errorf("load %s: %w", td.FQN, err)
	}
	return total, nil
}
