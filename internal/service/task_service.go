package service

import (
	"context"
	"errors"
	"fmt"
	"taskAPI/internal/logger"
	"taskAPI/internal/models/task"
	rep "taskAPI/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

func (s *TaskService) CreateTask(ctx context.Context, title, description string, status task.Status) (*task.Task, error) {
	newTask, err := task.New(title, description, status)
	if err != nil {
		field := "title"
		if errors.Is(err, task.ErrInvalidStatus) {
			field = "status"
		}
		return nil, NewValidationError(field, err.Error())
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.Int64("task_id", newTask.ID))
	return newTask, nil
}

// UpdateTask применяет только переданные опции, остальные поля не трогает
func (s *TaskService) UpdateTask(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	existing, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	updated.Apply(options...)

	if err := task.ValidateTitle(updated.Title); err != nil {
		return nil, NewValidationError("title", err.Error())
	}
	if !updated.Status.Valid() {
		return nil, NewValidationError("status", task.ErrInvalidStatus.Error())
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Warn("Service: Задача удалена во время обновления", zap.Int64("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	logger.Info("Service: Задача обновлена",
		zap.Int64("task_id", id),
		zap.String("status", string(updated.Status)),
		zap.Time("updated_at", updated.UpdatedAt))
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	existing, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Warn("Service: Задача уже удалена", zap.Int64("target_id", id))
			return NewNotFound(id)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}
