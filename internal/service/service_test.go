package service_test

import (
	"context"
	"errors"
	"taskAPI/internal/models/task"
	"taskAPI/internal/repository"
	"taskAPI/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) GetAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "ожидалась BusinessError, получено %v", err)
	assert.Equal(t, code, busErr.Code)
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_GetAllTasks тестирует получение всех задач
func TestTaskService_GetAllTasks(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockTaskRepository)
		expectedCount int
		expectError   bool
	}{
		{
			name: "success - two tasks",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetAll", mock.Anything).Return([]*task.Task{{ID: 1}, {ID: 2}}, nil)
			},
			expectedCount: 2,
		},
		{
			name: "success - empty store returns empty slice",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetAll", mock.Anything).Return(nil, nil)
			},
			expectedCount: 0,
		},
		{
			name: "error - store failure is propagated",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetAll", mock.Anything).Return(nil, errors.New("connection reset"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo)
			tasks, err := svc.GetAllTasks(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				_, isBusiness := service.AsBusinessError(err)
				assert.False(t, isBusiness)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, tasks)
				assert.Len(t, tasks, tt.expectedCount)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_GetTaskByID тестирует получение задачи
func TestTaskService_GetTaskByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(1)).Return(&task.Task{ID: 1, Title: "Estudar"}, nil)

		found, err := service.NewTaskService(mockRepo).GetTaskByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - not found names the id", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)

		_, err := service.NewTaskService(mockRepo).GetTaskByID(ctx, 42)
		assertBusinessCode(t, err, service.CodeNotFound)
		assert.Contains(t, err.Error(), "Tarefa com ID 42 não encontrada")
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - store failure", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(3)).Return(nil, errors.New("timeout"))

		_, err := service.NewTaskService(mockRepo).GetTaskByID(ctx, 3)
		assert.Error(t, err)
		assert.False(t, service.IsNotFound(err))
		mockRepo.AssertExpectations(t)
	})
}

// TestTaskService_CreateTask тестирует создание задачи
func TestTaskService_CreateTask(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		title          string
		description    string
		status         task.Status
		setupMock      func(*MockTaskRepository)
		expectedStatus task.Status
		errorCode      string
		errorField     string
		expectError    bool
	}{
		{
			name:        "success - explicit status",
			title:       "Estudar NestJS",
			description: "Rever módulos",
			status:      task.StatusDoing,
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.Title == "Estudar NestJS" && t.Status == task.StatusDoing
				})).Run(func(args mock.Arguments) {
					created := args.Get(1).(*task.Task)
					created.ID = 1
					created.CreatedAt = now
					created.UpdatedAt = now
				}).Return(nil)
			},
			expectedStatus: task.StatusDoing,
		},
		{
			name:  "success - status defaults to open",
			title: "Estudar Go",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					created := args.Get(1).(*task.Task)
					created.ID = 2
					created.CreatedAt = now
					created.UpdatedAt = now
				}).Return(nil)
			},
			expectedStatus: task.StatusOpen,
		},
		{
			name:        "error - empty title",
			title:       "",
			setupMock:   func(m *MockTaskRepository) {},
			expectError: true,
			errorCode:   service.CodeValidation,
			errorField:  "title",
		},
		{
			name:        "error - unknown status",
			title:       "Estudar Go",
			status:      task.Status("archived"),
			setupMock:   func(m *MockTaskRepository) {},
			expectError: true,
			errorCode:   service.CodeValidation,
			errorField:  "status",
		},
		{
			name:  "error - store failure",
			title: "Estudar Go",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			created, err := service.NewTaskService(mockRepo).CreateTask(context.Background(), tt.title, tt.description, tt.status)

			if tt.expectError {
				assert.Error(t, err)
				if tt.errorCode != "" {
					assertBusinessCode(t, err, tt.errorCode)
				}
				if tt.errorField != "" {
					busErr, _ := service.AsBusinessError(err)
					assert.Equal(t, tt.errorField, busErr.Details["field"])
				}
			} else {
				require.NoError(t, err)
				assert.NotZero(t, created.ID)
				assert.Equal(t, tt.expectedStatus, created.Status)
				assert.Equal(t, created.CreatedAt, created.UpdatedAt)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_UpdateTask тестирует частичное обновление
func TestTaskService_UpdateTask(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	existing := func() *task.Task {
		return &task.Task{
			ID:          1,
			Title:       "Estudar NestJS",
			Description: "Rever módulos",
			Status:      task.StatusOpen,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
	}

	tests := []struct {
		name        string
		options     []task.TaskOption
		setupMock   func(*MockTaskRepository)
		check       func(*testing.T, *task.Task)
		errorCode   string
		expectError bool
	}{
		{
			name:    "success - only status changes",
			options: []task.TaskOption{task.WithStatus(task.StatusDoing)},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(1)).Return(existing(), nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.Status == task.StatusDoing && t.Title == "Estudar NestJS" && t.Description == "Rever módulos"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*task.Task).UpdatedAt = createdAt.Add(time.Minute)
				}).Return(nil)
			},
			check: func(t *testing.T, updated *task.Task) {
				assert.Equal(t, "Estudar NestJS", updated.Title)
				assert.Equal(t, "Rever módulos", updated.Description)
				assert.Equal(t, task.StatusDoing, updated.Status)
				assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
			},
		},
		{
			name:    "success - backwards transition allowed",
			options: []task.TaskOption{task.WithStatus(task.StatusOpen)},
			setupMock: func(m *MockTaskRepository) {
				done := existing()
				done.Status = task.StatusDone
				m.On("GetByID", mock.Anything, int64(1)).Return(done, nil)
				m.On("Update", mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, updated *task.Task) {
				assert.Equal(t, task.StatusOpen, updated.Status)
			},
		},
		{
			name:    "error - not found",
			options: []task.TaskOption{task.WithStatus(task.StatusDoing)},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(1)).Return(nil, repository.ErrNotFound)
			},
			expectError: true,
			errorCode:   service.CodeNotFound,
		},
		{
			name:    "error - deleted between check and write",
			options: []task.TaskOption{task.WithTitle("Outro título")},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(1)).Return(existing(), nil)
				m.On("Update", mock.Anything, mock.Anything).Return(repository.ErrNotFound)
			},
			expectError: true,
			errorCode:   service.CodeNotFound,
		},
		{
			name:    "error - title too short",
			options: []task.TaskOption{task.WithTitle("ab")},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(1)).Return(existing(), nil)
			},
			expectError: true,
			errorCode:   service.CodeValidation,
		},
		{
			name:    "error - store failure",
			options: []task.TaskOption{task.WithStatus(task.StatusDone)},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(1)).Return(existing(), nil)
				m.On("Update", mock.Anything, mock.Anything).Return(errors.New("write failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			updated, err := service.NewTaskService(mockRepo).UpdateTask(context.Background(), 1, tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				if tt.errorCode != "" {
					assertBusinessCode(t, err, tt.errorCode)
				}
			} else {
				require.NoError(t, err)
				tt.check(t, updated)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_DeleteTask тестирует удаление задачи
func TestTaskService_DeleteTask(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		errorCode   string
		expectError bool
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(5)).Return(&task.Task{ID: 5}, nil)
				m.On("Delete", mock.Anything, mock.MatchedBy(func(t *task.Task) bool { return t.ID == 5 })).Return(nil)
			},
		},
		{
			name: "error - not found",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(5)).Return(nil, repository.ErrNotFound)
			},
			expectError: true,
			errorCode:   service.CodeNotFound,
		},
		{
			name: "error - deleted concurrently",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(5)).Return(&task.Task{ID: 5}, nil)
				m.On("Delete", mock.Anything, mock.Anything).Return(repository.ErrNotFound)
			},
			expectError: true,
			errorCode:   service.CodeNotFound,
		},
		{
			name: "error - store failure",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(5)).Return(&task.Task{ID: 5}, nil)
				m.On("Delete", mock.Anything, mock.Anything).Return(errors.New("delete failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			err := service.NewTaskService(mockRepo).DeleteTask(context.Background(), 5)

			if tt.expectError {
				assert.Error(t, err)
				if tt.errorCode != "" {
					assertBusinessCode(t, err, tt.errorCode)
				}
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBusinessError(t *testing.T) {
	cause := errors.New("root cause")
	busErr := service.NewBusinessError(service.CodeInternal, "falha", service.ToDetail("op", "create"))
	busErr.Err = cause

	assert.ErrorIs(t, busErr, cause)
	assert.Equal(t, "create", busErr.Details["op"])
	assert.Contains(t, busErr.Error(), "[INTERNAL_ERROR] falha: root cause")

	validation := service.NewValidationError("title", "too short")
	assert.Equal(t, "title", validation.Details["field"])
	assert.False(t, service.IsNotFound(validation))
	assert.True(t, service.IsNotFound(service.NewNotFound(9)))
}
