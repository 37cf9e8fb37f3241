package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/checkpoint"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

func newResumeCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Runs a resumable search, continuing from a saved checkpoint",
		Long: `Like search, but stops at the first blocked archive and saves a checkpoint.
Running resume again with the same query continues from the blocked archive
without downloading the finished ones again. The checkpoint is removed once
the search completes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResume(cmd, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runResume(cmd *cobra.Command, flags *searchFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := appInstance.Logger()
	q := flags.query(appInstance)
	checkpoints := appInstance.Checkpoints()

	var state *tender.AcquisitionState
	saved, err := checkpoints.Load(ctx, q)
	switch {
	case errors.Is(err, checkpoint.ErrNoCheckpoint):
		logger.Info("no checkpoint found, starting a new search")
	case err != nil:
		return fmt.Errorf("load checkpoint: %w", err)
	default:
		state = &saved.Checkpoint.State
		fields := []zap.Field{
			zap.Int("next_archive_index", state.NextArchiveIndex),
			zap.Int("archives", len(state.Archives)),
			zap.Int("tenders", len(state.Records)),
		}
		if wait := remainingBlock(saved, time.Now()); wait > 0 {
			fields = append(fields, zap.Duration("block_may_last", wait))
		}
		logger.Info("resuming from checkpoint", fields...)
	}

	out, cp, err := appInstance.Searcher().SearchResumable(ctx, q, state)
	if err != nil {
		return fmt.Errorf("resumable search: %w", err)
	}
	if cp != nil {
		if err := checkpoints.Save(ctx, *cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		logger.Warn(cp.Message,
			zap.String("blocked_url", cp.BlockedURL),
			zap.Int("retry_after_seconds", cp.RetryAfterSeconds),
		)
		return writeResult(cmd.OutOrStdout(), flags.output, cp)
	}
	if err := checkpoints.Clear(ctx, q); err != nil {
		logger.Warn("failed to clear checkpoint", zap.Error(err))
	}
	logOutcome(logger, out)
	return writeResult(cmd.OutOrStdout(), flags.output, out)
}

// remainingBlock estimates how much of the provider block is left.
func remainingBlock(saved *checkpoint.Saved, now time.Time) time.Duration {
	if saved == nil || saved.Checkpoint.RetryAfterSeconds <= 0 || saved.SavedAt.IsZero() {
		return 0
	}
	until := saved.SavedAt.Add(time.Duration(saved.Checkpoint.RetryAfterSeconds) * time.Second)
	return until.Sub(now).Round(time.Second)
}
