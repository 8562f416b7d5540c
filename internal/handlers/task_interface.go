package handlers

import (
	"context"
	"taskAPI/internal/models/task"
)

type Service interface {
	HealthCheck(context.Context) error
	GetAllTasks(context.Context) ([]*task.Task, error)
	GetTaskByID(context.Context, int64) (*task.Task, error)
	CreateTask(context.Context, string, string, task.Status) (*task.Task, error)
	UpdateTask(context.Context, int64, ...task.TaskOption) (*task.Task, error)
	DeleteTask(context.Context, int64) error
}
