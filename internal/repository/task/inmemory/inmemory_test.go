package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"taskAPI/internal/models/task"
	"taskAPI/internal/repository"
	"taskAPI/internal/repository/task/inmemory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock выдаёт время с шагом в секунду
type fakeClock struct {
	mtx     sync.Mutex
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func newStorage() *inmemory.TaskStorage {
	clock := &fakeClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return inmemory.NewTaskStorage(inmemory.WithClock(clock.Now))
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := newStorage()

	first := &task.Task{Title: "Test Task", Description: "Test Description", Status: task.StatusOpen}
	second := &task.Task{Title: "Second Task", Status: task.StatusDoing}

	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	retrieved, err := storage.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrieved.Title)
}

// TestTaskStorage_GetByID тестирует получение задачи по ID
func TestTaskStorage_GetByID(t *testing.T) {
	ctx := context.Background()
	storage := newStorage()

	created := &task.Task{Title: "Test Get Task", Status: task.StatusDoing}
	require.NoError(t, storage.Create(ctx, created))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)

	// изменение полученной копии не меняет хранилище
	retrieved.Title = "mutated"
	again, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Get Task", again.Title)

	_, err = storage.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_GetAll тестирует порядок и пустой результат
func TestTaskStorage_GetAll(t *testing.T) {
	ctx := context.Background()
	storage := newStorage()

	empty, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 1; i <= 3; i++ {
		require.NoError(t, storage.Create(ctx, &task.Task{Title: fmt.Sprintf("Task %d", i), Status: task.StatusOpen}))
	}

	tasks, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i, got := range tasks {
		assert.Equal(t, int64(i+1), got.ID)
	}
}

// TestTaskStorage_Update тестирует обновление задачи
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := newStorage()

	created := &task.Task{Title: "Original", Description: "desc", Status: task.StatusOpen}
	require.NoError(t, storage.Create(ctx, created))

	toUpdate := created.Clone()
	toUpdate.Status = task.StatusDone
	require.NoError(t, storage.Update(ctx, toUpdate))

	assert.Equal(t, created.CreatedAt, toUpdate.CreatedAt)
	assert.True(t, toUpdate.UpdatedAt.After(created.UpdatedAt))

	retrieved, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, retrieved.Status)
	assert.Equal(t, "Original", retrieved.Title)

	err = storage.Update(ctx, &task.Task{ID: 404, Title: "ghost"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Delete тестирует удаление
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := newStorage()

	created := &task.Task{Title: "To delete", Status: task.StatusOpen}
	require.NoError(t, storage.Create(ctx, created))

	require.NoError(t, storage.Delete(ctx, created))

	_, err := storage.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = storage.Delete(ctx, created)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// id не переиспользуется
	next := &task.Task{Title: "Next", Status: task.StatusOpen}
	require.NoError(t, storage.Create(ctx, next))
	assert.Equal(t, int64(2), next.ID)
}

// TestTaskStorage_Concurrent тестирует конкурентный доступ
func TestTaskStorage_Concurrent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created := &task.Task{Title: fmt.Sprintf("Task %d", i), Status: task.StatusOpen}
			assert.NoError(t, storage.Create(ctx, created))
			_, err := storage.GetByID(ctx, created.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	tasks, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 50)

	seen := make(map[int64]bool)
	for _, got := range tasks {
		assert.False(t, seen[got.ID], "повтор id %d", got.ID)
		seen[got.ID] = true
	}
}
