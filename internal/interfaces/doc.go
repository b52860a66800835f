// Package interfaces documents the seams between the library's packages.
//
// # Interface Categories
//
// ## Audit Interfaces
//
//   - AuditLogger: Login/logout/registration events (internal/auth/handlers.go)
//   - MaintenanceRecorder: Outcomes of maintenance jobs (internal/tasks/jobs.go)
//   - AuditEventCleaner: Retention sweep of old events (internal/tasks/cleanup_audit.go)
//
// All three are implemented by *audit.Service.
//
// ## Circulation Interfaces
//
//   - ReservationExpirer: Releases reservations whose hold ran out
//     (internal/tasks/expire_reservations.go), implemented by *lending.Service
//
// ## Background Work Interfaces
//
//   - TaskQueue: Enqueue and status lookup for the task endpoints (internal/http/tasks.go)
//   - Enqueuer: What the scheduler needs from the queue (internal/scheduler/scheduler.go)
//   - JobRunner: Direct execution when the queue is off (internal/http/tasks.go)
//
// *tasks.Client satisfies TaskQueue and Enqueuer; *scheduler.Scheduler
// satisfies JobRunner.
//
// # Adding a New Maintenance Job
//
//  1. Add the job method and its backlite queue in internal/tasks/:
//
//     type RemindOverdueTask struct{}
//
//     func (t RemindOverdueTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: TypeRemindOverdue, MaxAttempts: 3}
//     }
//
//     func (j *Jobs) RemindOverdue(ctx context.Context) (int, error)
//
//  2. Return the queue from Jobs.Queues and the task from NewTask.
//
//  3. Add a schedule to config.Maintenance and wire it in scheduler.Start.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the current set.
package interfaces
