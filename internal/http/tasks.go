package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/seatgenie/library/internal/tasks"
)

// TaskQueue enqueues maintenance tasks and reports their status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue              TaskQueue
	auditRetentionDays int
}

func NewTasksController(queue TaskQueue, auditRetentionDays int) *TasksController {
	return &TasksController{queue: queue, auditRetentionDays: auditRetentionDays}
}

// RunTaskRequest is the optional body for running a task.
type RunTaskRequest struct {
	// AsOf overrides the reference time of scan_overdue_loans.
	AsOf *time.Time `json:"asOf"`
	// RetentionDays overrides the retention of cleanup_audit_events.
	RetentionDays int `json:"retentionDays" binding:"omitempty,min=1,max=3650"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	respondData(c, http.StatusOK, tasks.Types)
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "Task")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	var task backlite.Task
	switch taskType {
	case tasks.TypeScanOverdueLoans:
		scan := tasks.ScanOverdueLoansTask{}
		if req.AsOf != nil {
			scan.AsOf = req.AsOf.UTC()
		}
		task = scan

	case tasks.TypeCleanupAuditEvents:
		retention := req.RetentionDays
		if retention == 0 {
			retention = tc.auditRetentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: retention}

	default:
		respondNotFound(c, "Task type")
		return
	}

	id, err := tc.queue.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	respondData(c, http.StatusAccepted, gin.H{
		"taskId": id,
		"type":   taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
