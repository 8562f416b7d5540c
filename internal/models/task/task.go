package task

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	TitleMinLength = 3
	TitleMaxLength = 100
)

type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type Status string

const StatusOpen Status = "aberto"
const StatusDoing Status = "fazendo"
const StatusDone Status = "finalizado"

var (
	ErrInvalidStatus = errors.New("o status deve ser um dos valores: aberto, fazendo, finalizado")
	ErrInvalidTitle  = fmt.Errorf("o título deve ter entre %d e %d caracteres", TitleMinLength, TitleMaxLength)
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusDoing, StatusDone:
		return true
	}
	return false
}

func ValidateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length < TitleMinLength || length > TitleMaxLength {
		return ErrInvalidTitle
	}
	return nil
}

// New собирает задачу для вставки, id и время проставляет хранилище
func New(title, description string, status Status) (*Task, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if status == "" {
		status = StatusOpen
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return &Task{
		Title:       title,
		Description: description,
		Status:      status,
	}, nil
}

func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
