package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/internal/logging"
	"github.com/rshade/promptbatch/internal/tui"
)

// eventBuffer is the channel size between the queue and the progress view.
const eventBuffer = 64

// outputParams are the flags shared by run and resume.
type outputParams struct {
	OutPath string
	Format  string
	Plain   bool
}

func addOutputFlags(cmd *cobra.Command, p *outputParams) {
	cmd.Flags().StringVarP(&p.OutPath, "out", "o", "", "write results to this file instead of stdout")
	cmd.Flags().StringVar(&p.Format, "format", "", "result format: json, jsonl or csv (default from --out extension, else json)")
	cmd.Flags().BoolVar(&p.Plain, "plain", false, "disable the interactive progress view")
}

// queueFactory builds a queue with the observer the caller chose.
type queueFactory func(opts ...batch.Option) (*batch.Queue, error)

// executeBatch runs a queue to completion or until interrupted, reports
// progress and writes results. SIGINT and SIGTERM stop the batch and
// persist a checkpoint; a second signal cancels the run.
func executeBatch(cmd *cobra.Command, newQueue queueFactory, out outputParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	format, err := resolveOutputFormat(out.Format, out.OutPath)
	if err != nil {
		return err
	}

	mode := tui.DetectOutputMode(os.Stderr.Fd(), out.Plain)

	var observer batch.Observer
	var channel *batch.ChannelObserver
	if mode == tui.OutputModeInteractive {
		channel = batch.NewChannelObserver(eventBuffer)
		observer = channel
	} else {
		observer = newLogObserver(ctx)
	}

	q, err := newQueue(batch.WithObserver(observer))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		stops    atomic.Int32
		stopping sync.WaitGroup
	)
	requestStop := func() {
		if stops.Add(1) > 1 {
			cancel()
			return
		}
		stopping.Go(func() {
			if stopErr := q.Stop(context.WithoutCancel(runCtx), true); stopErr != nil {
				log.Warn().Ctx(ctx).Err(stopErr).Msg("stopping batch")
			}
		})
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	quit := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		for {
			select {
			case <-sigCh:
				log.Info().Ctx(ctx).Str("batch_id", q.BatchID()).Msg("interrupt received, stopping batch")
				requestStop()
			case <-quit:
				return
			}
		}
	}()

	var (
		results []engine.Result
		runErr  error
	)
	if channel != nil {
		results, runErr = runWithProgressView(runCtx, cmd, q, channel, requestStop)
	} else {
		results, runErr = q.Start(runCtx)
	}
	// No stop may start after this point; the caller closes the store
	// once this returns.
	close(quit)
	<-watcherDone
	stopping.Wait()

	return reportBatch(cmd, q, results, runErr, format, out.OutPath)
}

// runWithProgressView drives the Bubble Tea view while the queue runs.
func runWithProgressView(
	ctx context.Context,
	cmd *cobra.Command,
	q *batch.Queue,
	channel *batch.ChannelObserver,
	requestStop func(),
) ([]engine.Result, error) {
	type outcome struct {
		results []engine.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := q.Start(ctx)
		channel.Close()
		done <- outcome{results, err}
	}()

	model := tui.NewProgressModel(q.BatchID(), q.Progress().Total, channel.Events(), requestStop)
	program := tea.NewProgram(model, tea.WithOutput(cmd.ErrOrStderr()), tea.WithoutSignalHandler())
	if _, err := program.Run(); err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("progress view failed, continuing without it")
	}
	// Keep the queue from blocking on a view that has exited.
	go func() {
		for range channel.Events() {
		}
	}()

	o := <-done
	return o.results, o.err
}

// reportBatch writes results and the summary and maps the run outcome to
// the command's error.
func reportBatch(
	cmd *cobra.Command,
	q *batch.Queue,
	results []engine.Result,
	runErr error,
	format, outPath string,
) error {
	errOut := cmd.ErrOrStderr()

	if errors.Is(runErr, batch.ErrStopped) || errors.Is(runErr, context.Canceled) {
		p := q.Progress()
		_, _ = fmt.Fprintf(errOut, "Batch %s stopped after %d of %d rows. Resume with: promptbatch resume %s\n",
			q.BatchID(), p.Current, p.Total, q.BatchID())
		return nil
	}

	var failed *batch.BatchFailedError
	if runErr != nil && !errors.As(runErr, &failed) {
		return runErr
	}

	if err := writeResultsFile(outPath, cmd.OutOrStdout(), format, results); err != nil {
		return err
	}
	if summary := q.Summary(); summary != nil {
		_, _ = fmt.Fprintln(errOut, tui.RenderSummary(*summary))
	}
	if failed != nil {
		_, _ = fmt.Fprintf(errOut,
			"Checkpoint kept. Add the missing API keys, then run: promptbatch resume %s --requeue-critical\n",
			q.BatchID())
	}
	return runErr
}

// newLogObserver reports queue events as log lines for non-interactive runs.
func newLogObserver(ctx context.Context) batch.Observer {
	log := logging.FromContext(ctx)
	return batch.ObserverFunc(func(e batch.Event) {
		switch ev := e.(type) {
		case batch.ProgressEvent:
			p := ev.Progress
			step := max(p.Total/10, 1)
			if p.Current%step != 0 && p.Current != p.Total {
				return
			}
			entry := log.Info().Ctx(ctx).
				Str("batch_id", ev.BatchID).
				Int("current", p.Current).
				Int("total", p.Total).
				Float64("percentage", p.Percentage)
			if p.ETASeconds != nil {
				entry = entry.Int64("eta_seconds", *p.ETASeconds)
			}
			entry.Msg("batch progress")
		case batch.RowErrorEvent:
			log.Warn().Ctx(ctx).
				Str("batch_id", ev.BatchID).
				Str("row_id", ev.RowID).
				Str("status", string(ev.Status)).
				Str("error", ev.Message).
				Msg("row failed")
		case batch.FailedEvent:
			log.Error().Ctx(ctx).
				Str("batch_id", ev.BatchID).
				Int("critical_errors", ev.CriticalErrorCount).
				Msg(ev.Reason)
		case batch.StoppedEvent:
			log.Info().Ctx(ctx).
				Str("batch_id", ev.BatchID).
				Int("processed", ev.Processed).
				Int("total", ev.Total).
				Msg("batch stopped")
		}
	})
}
