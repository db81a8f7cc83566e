// Package schedule runs named jobs on cron schedules. It backs the
// scheduled-run mode of the CLI, executing compliance runs and history
// pruning at configured times.
//
// Schedules are standard five-field cron expressions; the aliases
// "hourly", "daily" and "weekly" are also accepted. A job whose
// previous invocation is still running is skipped, never overlapped.
//
//	s := schedule.NewScheduler(logger)
//	s.Add(ctx, "compliance-run", "0 6 * * *", runJob)
//	s.Add(ctx, "history-prune", "0 3 * * *", pruneJob)
//	s.Start(ctx)
//	defer s.Stop()
package schedule
