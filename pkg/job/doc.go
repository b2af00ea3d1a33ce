// Package job runs periodic maintenance tasks in-process on cron schedules.
//
// Tasks are plain structs with Name, Schedule and Handle methods; no
// interface import is required:
//
//	type SweepRateLimits struct{ limiter *ratelimit.Limiter }
//
//	func (t *SweepRateLimits) Name() string     { return "ratelimit_sweep" }
//	func (t *SweepRateLimits) Schedule() string { return "@hourly" }
//	func (t *SweepRateLimits) Handle(ctx context.Context) error {
//	    _, err := t.limiter.Sweep(ctx)
//	    return err
//	}
//
// Schedules use the standard five-field cron syntax plus descriptors such as
// @hourly or @every 30m. A run that is still executing when its next tick
// fires is skipped, and panics are recovered and logged.
//
// The manager plugs into the server lifecycle:
//
//	m, err := job.NewManager(job.WithScheduledTask(task), job.WithLogger(log))
//	app.Run(addr, server.StartupHook(m.StartFunc()), server.ShutdownHook(m.Shutdown()))
package job
