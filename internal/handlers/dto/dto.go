package dto

import (
	"taskAPI/internal/models/task"
	"time"
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// CreateTaskRequest: Status nil - поле не передано, пустая строка - ошибка
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      *string `json:"status,omitempty"`
}

func (r CreateTaskRequest) Validate() []FieldError {
	var errs []FieldError
	if err := task.ValidateTitle(r.Title); err != nil {
		errs = append(errs, FieldError{Field: "title", Reason: err.Error()})
	}
	if r.Status != nil && !task.Status(*r.Status).Valid() {
		errs = append(errs, FieldError{Field: "status", Reason: task.ErrInvalidStatus.Error()})
	}
	return errs
}

// StatusOrDefault вызывать только после Validate
func (r CreateTaskRequest) StatusOrDefault() task.Status {
	if r.Status == nil {
		return task.StatusOpen
	}
	return task.Status(*r.Status)
}

// UpdateTaskRequest - nil означает, что поле не передано
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r UpdateTaskRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Title != nil {
		if err := task.ValidateTitle(*r.Title); err != nil {
			errs = append(errs, FieldError{Field: "title", Reason: err.Error()})
		}
	}
	if r.Status != nil && !task.Status(*r.Status).Valid() {
		errs = append(errs, FieldError{Field: "status", Reason: task.ErrInvalidStatus.Error()})
	}
	return errs
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	options := make([]task.TaskOption, 0, 3)
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(task.Status(*r.Status)))
	}
	return options
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type InfoResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Description string `json:"description"`
}
