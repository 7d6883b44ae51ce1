// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
	"github.com/UnendingLoop/CakeArtist/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

// Префиксы ключей в хранилище, результаты кладет воркер под своим префиксом
const (
	SourceKeyPrefix = "sources/"
	PhotoKeyPrefix  = "photos/"
)

type RenderService struct {
	repo      repository.RenderRepo
	publisher TaskPublisher
	storage   ObjectStorage
}

func NewRenderService(repo repository.RenderRepo, pub TaskPublisher, strg ObjectStorage) *RenderService {
	return &RenderService{
		repo:      repo,
		publisher: pub,
		storage:   strg,
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

// SourceKey - ключ n-го исходника задачи
func SourceKey(uid uuid.UUID, n int, contentType string) string {
	return fmt.Sprintf("%s%s/%d%s", SourceKeyPrefix, uid, n, model.GetImageFileExt[contentType])
}

func PhotoKey(uid uuid.UUID, contentType string) string {
	return PhotoKeyPrefix + uid.String() + model.GetImageFileExt[contentType]
}

func (c RenderService) Create(ctx context.Context, data *model.RenderCreateData) (*model.RenderJob, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	newJob := &model.RenderJob{}

	// Валидируем входные данные
	if err := validateNormalizeRenderInfo(data, newJob); err != nil {
		return nil, err
	}

	newJob.UID = uuid.New()

	// кладем в хранилище исходники, при ошибке подчищаем уже сохраненное
	stored := make([]string, 0, len(data.Images)+1)
	for i, img := range data.Images {
		key := SourceKey(newJob.UID, i, img.ContentType)
		if err := c.storage.Put(ctx, key, img.Size, img.ContentType, img.File); err != nil {
			logger.Error().Err(err).Int("index", i).Msg("Failed to save src-image in Storage")
			c.dropObjects(ctx, stored)
			return nil, model.ErrCommon500
		}
		stored = append(stored, key)
		newJob.SourceKeys = append(newJob.SourceKeys, key)
	}

	// фото опционально
	if data.Photo != nil {
		key := PhotoKey(newJob.UID, data.Photo.ContentType)
		if err := c.storage.Put(ctx, key, data.Photo.Size, data.Photo.ContentType, data.Photo.File); err != nil {
			logger.Error().Err(err).Msg("Failed to save photo in Storage")
			c.dropObjects(ctx, stored)
			return nil, model.ErrCommon500
		}
		stored = append(stored, key)
		newJob.PhotoKey = key
		newJob.WithPhoto = true
	}

	// ставим статус и таймстамп
	newJob.Status = model.StatusCreated
	now := time.Now().UTC()
	newJob.CreatedAt = &now
	newJob.UpdatedAt = &now

	// шлем в базу
	if err := c.repo.Create(ctx, newJob); err != nil {
		logger.Error().Err(err).Msg("Failed to create render job in DB")
		c.dropObjects(ctx, stored)
		return nil, model.ErrCommon500
	}

	// кладем в очередь задач; запись уже в базе, recovery-loop подберет ее при неудаче
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(newJob.UID.String()), nil); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish render %q to task-queue", newJob.UID))
		return nil, model.ErrCommon500
	}
	return newJob, nil
}

func (c RenderService) GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch renders list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c RenderService) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	res, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return nil, model.ErrJobNotFound // 404
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch render %q from DB", id))
		return nil, model.ErrCommon500
	}

	return res, nil
}

// LoadResult streams the n-th deliverable of a finished job.
func (c RenderService) LoadResult(ctx context.Context, id string, n int) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := c.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if res.Status != model.StatusDone {
		return nil, "", model.ErrResultNotReady
	}
	if n < 0 || n >= len(res.ResultKeys) {
		return nil, "", model.ErrResultIndex
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, res.ResultKeys[n])
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch result #%d of render %q from Storage", n, id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c RenderService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)

	// читаем из базы
	res, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return model.ErrJobNotFound
		}
		logger.Error().Err(err).Msg("Failed to delete render from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища исходники, фото и результаты
	keys := make([]string, 0, len(res.SourceKeys)+len(res.ResultKeys)+1)
	keys = append(keys, res.SourceKeys...)
	keys = append(keys, res.ResultKeys...)
	if res.PhotoKey != "" {
		keys = append(keys, res.PhotoKey)
	}
	if failed := c.dropObjects(ctx, keys); failed > 0 {
		return model.ErrCommon500
	}

	return nil
}

func (c RenderService) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}
	if !model.StatusMap[newStat] {
		return model.ErrIncorrectStatus
	}

	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.UpdateStatus(ctx, id, newStat); err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFound):
			return model.ErrJobNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to update render status in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// SaveResult stores the final state of a job: result keys with status done, or error message with status failed.
func (c RenderService) SaveResult(ctx context.Context, input *model.RenderJob) error {
	logger := mwlogger.LoggerFromContext(ctx)
	if !model.StatusMap[input.Status] {
		return model.ErrIncorrectStatus
	}

	t := time.Now().UTC()
	input.UpdatedAt = &t
	if err := c.repo.SaveResult(ctx, input); err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFound):
			return model.ErrJobNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to save render result in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// ReviveOrphans republishes jobs that got stuck before reaching the worker or inside it.
func (c RenderService) ReviveOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphans from DB")
		return
	}

	for _, v := range orphans {
		if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(v), nil); err != nil {
			logger.Error().Err(err).Msg("Failed to publish orphan to queue")
		}
	}
	if len(orphans) > 0 {
		logger.Info().Int("count", len(orphans)).Msg("Orphan renders republished")
	}
}

// dropObjects удаляет объекты по ключам, возвращает число неудач
func (c RenderService) dropObjects(ctx context.Context, keys []string) int {
	logger := mwlogger.LoggerFromContext(ctx)
	failed := 0
	for _, key := range keys {
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to delete object from Storage")
			failed++
		}
	}
	return failed
}
