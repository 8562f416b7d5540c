package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"taskAPI/internal/logger"
	"taskAPI/internal/models/task"
	repo "taskAPI/internal/repository"
	"time"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 100 * time.Millisecond

// taskRecord - строка таблицы tasks
type taskRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"not null;default:''"`
	Status      string `gorm:"size:16;not null;default:aberto;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskRecord) TableName() string {
	return "tasks"
}

func (r *taskRecord) toTask() *task.Task {
	return &task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      task.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type Storage struct {
	db    *gorm.DB
	sqlDB *sql.DB
	now   func() time.Time
}

type Option func(*Storage)

func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New открывает файл базы (или ":memory:") и создаёт таблицу
func New(path string, options ...Option) (*Storage, error) {
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("получение sql.DB: %w", err)
	}
	// один писатель; для ":memory:" ещё и единственная копия базы
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		_ = sqlDB.Close()
		logger.Error("Repository: Ошибка миграции SQLite", err)
		return nil, fmt.Errorf("миграция sqlite: %w", err)
	}

	s := &Storage{db: db, sqlDB: sqlDB, now: time.Now}
	for _, opt := range options {
		opt(s)
	}

	logger.Info("Repository: SQLite готов", zap.String("path", path))
	return s, nil
}

func (s *Storage) Close() {
	if err := s.sqlDB.Close(); err != nil {
		logger.Warn("Repository: Ошибка закрытия SQLite", zap.Error(err))
		return
	}
	logger.Info("Repository: Закрытие соединения SQLite")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	var records []taskRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*task.Task, 0, len(records))
	for i := range records {
		tasks = append(tasks, records[i].toTask())
	}

	warnIfSlow(start, "get_all")
	return tasks, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	var record taskRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, "get_by_id")
	return record.toTask(), nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	now := s.now().UTC()

	record := taskRecord{
		Title:       taskToCreate.Title,
		Description: taskToCreate.Description,
		Status:      string(taskToCreate.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}

	taskToCreate.ID = record.ID
	taskToCreate.CreatedAt = record.CreatedAt
	taskToCreate.UpdatedAt = record.UpdatedAt

	warnIfSlow(start, "create")
	return nil
}

// Update пишет только если строка ещё существует
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	now := s.now().UTC()
	if now.Before(taskToUpdate.UpdatedAt) {
		now = taskToUpdate.UpdatedAt
	}

	result := s.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ?", taskToUpdate.ID).
		Updates(map[string]any{
			"title":       taskToUpdate.Title,
			"description": taskToUpdate.Description,
			"status":      string(taskToUpdate.Status),
			"updated_at":  now,
		})
	if result.Error != nil {
		logger.Error("Repository: Не удалось обновить задачу", result.Error)
		return fmt.Errorf("обновление задачи: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logger.Warn("Repository: Задача исчезла до обновления", zap.Int64("task_id", taskToUpdate.ID))
		return repo.ErrNotFound
	}

	taskToUpdate.UpdatedAt = now

	warnIfSlow(start, "update")
	return nil
}

func (s *Storage) Delete(ctx context.Context, taskToDelete *task.Task) error {
	start := time.Now()

	result := s.db.WithContext(ctx).Delete(&taskRecord{}, taskToDelete.ID)
	if result.Error != nil {
		logger.Error("Repository: Не удалось удалить задачу", result.Error)
		return fmt.Errorf("удаление задачи: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, "delete")
	return nil
}

func warnIfSlow(start time.Time, operation string) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленная операция",
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
	}
}
