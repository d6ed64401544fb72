package cli

import (
	"context"
	"errors"
	"fmt"

	"kineticcore/internal/core"
	"kineticcore/internal/kinetics"
	"kineticcore/internal/queue"
	"kineticcore/pkg/domain"
)

// jobHandler runs queued jobs against svc. Reports of jobs without Commit,
// and reports whose commit fails, are discarded once the result is known.
func jobHandler(svc *core.Service, workers int) queue.Handler {
	return func(ctx context.Context, job queue.Job) (queue.Result, error) {
		var (
			report core.GenerationReport
			err    error
		)
		switch job.Kind {
		case queue.JobGenerate:
			opts := kinetics.DefaultOptions()
			opts.OverwriteExistingLaws = job.Overwrite
			opts.GenerateForAllReactions = job.AllReactions
			opts.Workers = workers
			report, err = svc.Generate(ctx, job.ModelID, job.Reactions, opts)
		case queue.JobImport:
			var source core.Model
			source, err = svc.GetModel(job.SourceModelID)
			if err == nil {
				report, err = svc.ImportLaws(ctx, job.ModelID, source)
			}
		default:
			err = fmt.Errorf("unknown job kind %q", job.Kind)
		}
		if err != nil {
			return queue.Result{}, err
		}

		res := queue.Result{
			ReportID:  report.ID,
			Succeeded: report.Count(domain.OutcomeSuccess),
			Failed:    report.Count(domain.OutcomeFailed),
		}
		if !job.Commit {
			return res, svc.Discard(ctx, report.ID)
		}
		if _, _, err := svc.Commit(ctx, report.ID); err != nil {
			return res, errors.Join(err, svc.Discard(ctx, report.ID))
		}
		res.Committed = true
		return res, nil
	}
}
