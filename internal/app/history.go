package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/history"
)

// History writes the most recent runs, newest first.
func (a *App) History(ctx context.Context, limit int) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	store, err := history.Open(ctx, a.config.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(limit)
	if err != nil {
		return err
	}
	a.logger.Debug("History loaded.", "count", len(records))
	return writeHistory(a.outW, records)
}

// Show writes the full record of one run as JSON.
func (a *App) Show(ctx context.Context, id string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	store, err := history.Open(ctx, a.config.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode run %s: %w", id, err)
	}
	return nil
}
