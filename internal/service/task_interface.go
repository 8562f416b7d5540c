package service

import (
	"context"
	"taskAPI/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	GetAll(context.Context) ([]*task.Task, error)
	GetByID(context.Context, int64) (*task.Task, error)
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	Delete(context.Context, *task.Task) error
}
