package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/http/respond"
	"github.com/mrlokans/library/internal/tasks"
)

// TaskQueue is the part of tasks.Client the task endpoints use.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// JobRunner executes a job in the request goroutine.
type JobRunner interface {
	RunNow(ctx context.Context, taskType string) (string, error)
}

// TaskRun describes a triggered task. Queued runs carry an ID; direct
// runs carry a summary.
type TaskRun struct {
	Type    string `json:"type"`
	TaskID  string `json:"task_id,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type TaskStatusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type TasksController struct {
	queue  TaskQueue
	runner JobRunner
	logger *zap.Logger
}

// NewTasksController wires the task endpoints. queue may be nil, in which
// case runs execute directly through runner.
func NewTasksController(queue TaskQueue, runner JobRunner, logger *zap.Logger) *TasksController {
	return &TasksController{queue: queue, runner: runner, logger: logger}
}

// Types handles GET /api/admin/tasks/types.
func (tc *TasksController) Types(c *gin.Context) {
	respond.OK(c, tasks.Types())
}

// Run handles POST /api/admin/tasks/:type/run.
func (tc *TasksController) Run(c *gin.Context) {
	taskType := c.Param("type")
	task, err := tasks.NewTask(taskType)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}

	if tc.queue != nil {
		id, err := tc.queue.Enqueue(c.Request.Context(), task)
		if err != nil {
			respondError(c, tc.logger, err)
			return
		}
		tc.logger.Info("Task enqueued",
			zap.String("task", taskType),
			zap.String("task_id", id),
			zap.Uint("user_id", auth.GetUserID(c)))
		respond.Message(c, "task queued", TaskRun{Type: taskType, TaskID: id})
		return
	}

	if tc.runner == nil {
		respond.Error(c, http.StatusServiceUnavailable, CodeTaskQueueDisabled, "background tasks are disabled")
		return
	}
	summary, err := tc.runner.RunNow(c.Request.Context(), taskType)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	tc.logger.Info("Task run",
		zap.String("task", taskType),
		zap.String("summary", summary),
		zap.Uint("user_id", auth.GetUserID(c)))
	respond.Message(c, "task completed", TaskRun{Type: taskType, Summary: summary})
}

// Status handles GET /api/admin/tasks/:id.
func (tc *TasksController) Status(c *gin.Context) {
	if tc.queue == nil {
		respond.Error(c, http.StatusNotFound, CodeTaskQueueDisabled, "task queue is disabled")
		return
	}

	taskID := c.Param("id")
	status, err := tc.queue.Status(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	if status == backlite.TaskStatusNotFound {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "task not found")
		return
	}
	respond.OK(c, TaskStatusResponse{TaskID: taskID, Status: tasks.StatusString(status)})
}
