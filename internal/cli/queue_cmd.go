package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kineticcore/internal/queue"
)

func (e *env) connectQueue() (*queue.Queue, func() error, error) {
	rdb, err := queue.ConnectRedis(e.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\nSet KINETICCORE_REDIS_URL environment variable", err)
	}
	return queue.New(rdb, 0), rdb.Close, nil
}

func newQueueCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue generation jobs for workers",
	}
	var job queue.Job
	push := &cobra.Command{
		Use:   "push MODEL [REACTION...]",
		Short: "Queue a generation job, or an import job with --import-from",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, closeFn, err := e.connectQueue()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()
			if err := q.EnsureStreams(cmd.Context()); err != nil {
				return err
			}
			job.ID = uuid.NewString()
			job.ModelID = args[0]
			job.Reactions = args[1:]
			job.Kind = queue.JobGenerate
			if job.SourceModelID != "" {
				job.Kind = queue.JobImport
			}
			msgID, err := q.PushJob(cmd.Context(), job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s job %s (%s)\n", job.Kind, job.ID, msgID)
			return nil
		},
	}
	push.Flags().StringVar(&job.SourceModelID, "import-from", "", "import laws from this stored model")
	push.Flags().BoolVar(&job.Overwrite, "overwrite", false, "regenerate reactions that already carry a law")
	push.Flags().BoolVar(&job.AllReactions, "all", false, "target every reaction of the model")
	push.Flags().BoolVar(&job.Commit, "commit", false, "commit the report instead of discarding it")
	cmd.AddCommand(push)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show queued jobs and published results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, closeFn, err := e.connectQueue()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()
			jobs, results, err := q.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("queue status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queue Status:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s:    %d entries\n", queue.StreamJobs, jobs)
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d entries\n", queue.StreamResults, results)
			return nil
		},
	})
	return cmd
}
