// Package worker executes render jobs taken from the task queue and stores the deliverables
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/imageproc"
	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
	"github.com/UnendingLoop/CakeArtist/internal/service"
	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
)

// RenderWorkerService - часть RenderService, нужная воркеру
type RenderWorkerService interface {
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	SaveResult(ctx context.Context, res *model.RenderJob) error
	Get(ctx context.Context, id string) (*model.RenderJob, error)
}

// Compositor - синхронные операции над изображениями, которыми собирается набор
type Compositor interface {
	ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error)
	ProcessCakeWithPhoto(ctx context.Context, baseRef, photoRef, viewHint string) (string, error)
}

type Worker struct {
	storage      service.ObjectStorage
	service      RenderWorkerService
	artist       Compositor
	queue        <-chan kafkago.Message
	consumer     *wbfkafka.Consumer
	resultPrefix string
}

func NewWorkerInstance(strg service.ObjectStorage, svc RenderWorkerService, artist Compositor, q <-chan kafkago.Message, cons *wbfkafka.Consumer, resPr string) *Worker {
	if resPr != "" && !strings.HasSuffix(resPr, "/") {
		resPr += "/"
	}
	return &Worker{storage: strg, service: svc, artist: artist, queue: q, consumer: cons, resultPrefix: resPr}
}

// ResultKey - ключ n-го результата задачи
func ResultKey(prefix, uid string, n int, contentType string) string {
	return fmt.Sprintf("%s%s/%d%s", prefix, uid, n, model.GetImageFileExt[contentType])
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				log.Println("Queue channel closed, stopping worker...")
				return
			}
			id := string(msg.Key)
			if err := w.initProcessor(ctx, id); err != nil && !errors.Is(err, model.ErrJobNotFound) {
				log.Printf("Render %s failed: %v", id, err)
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit queue-message: %v", err)
			}
		}
	}
}

func (w *Worker) initProcessor(ctx context.Context, id string) error {
	ctx = mwlogger.WithRender(ctx, id)

	// считать из базы задачу
	job, err := w.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("worker failed to fetch render %q from DB: %w", id, err)
	}

	// проверить статус
	switch job.Status {
	case model.StatusDone, model.StatusFailed:
		return nil
	case model.StatusInProgress:
		// воркер упал посреди задачи - recovery loop переопубликовал ее, забираем заново
		if !job.IsOrphaned(time.Now()) {
			return fmt.Errorf("render %q is already in progress", id)
		}
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Time("updated_at", *job.UpdatedAt).Msg("Reclaiming stale in_progress render")
	}

	// обновить статус
	if err := w.service.UpdateStatus(ctx, id, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to update status of render %q to `in_progress` in DB: %w", id, err)
	}

	// всё или ничего: при ошибке частичные результаты удаляются, задача помечается failed
	keys, pErr := w.processJob(ctx, job)
	if pErr != nil {
		w.dropResults(ctx, keys)
		job.Status = model.StatusFailed
		job.ResultKeys = nil
		job.ErrMsg = model.StringSlice{pErr.Error()}
		if sErr := w.service.SaveResult(ctx, job); sErr != nil {
			return fmt.Errorf("failed to mark render %q as failed in DB: %w \nAFTER\n error while processing render: %w", id, sErr, pErr)
		}
		return fmt.Errorf("failed to process render %q: %w", id, pErr)
	}

	job.Status = model.StatusDone
	job.ResultKeys = keys
	job.ErrMsg = nil
	if err := w.service.SaveResult(ctx, job); err != nil {
		return fmt.Errorf("worker failed to save result of render %q to DB: %w", id, err)
	}

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().Int("results", len(keys)).Bool("with_photo", job.WithPhoto).Msg("Render done")
	return nil
}

// processJob returns keys of everything it managed to store, even on failure, so the caller can clean up.
func (w *Worker) processJob(ctx context.Context, job *model.RenderJob) ([]string, error) {
	if len(job.SourceKeys) == 0 {
		return nil, model.ErrNoImages
	}

	// достать из storage исходники
	sources := make([]string, 0, len(job.SourceKeys))
	for _, key := range job.SourceKeys {
		ref, err := w.loadRef(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("worker failed to fetch source %q from storage: %w", key, err)
		}
		sources = append(sources, ref)
	}

	// надпись на всех ракурсах разом
	results, err := w.artist.ProcessImageArray(ctx, sources, job.Recipient)
	if err != nil {
		return nil, fmt.Errorf("worker failed to add text: %w", err)
	}

	// фото поверх надписи, ракурс берется по позиции в наборе
	if job.WithPhoto {
		photo, err := w.loadRef(ctx, job.PhotoKey)
		if err != nil {
			return nil, fmt.Errorf("worker failed to fetch photo %q from storage: %w", job.PhotoKey, err)
		}
		for i, ref := range results {
			out, err := w.artist.ProcessCakeWithPhoto(ctx, ref, photo, model.ViewAt(i).Hint())
			if err != nil {
				return nil, fmt.Errorf("worker failed to add photo to image #%d: %w", i, err)
			}
			results[i] = out
		}
	}

	// положить результаты в сторедж
	keys := make([]string, 0, len(results))
	for i, ref := range results {
		data, cType, err := imageproc.ParseDataURI(ref)
		if err != nil {
			return keys, fmt.Errorf("worker got broken result #%d: %w", i, err)
		}

		key := ResultKey(w.resultPrefix, job.UID.String(), i, cType)
		if err := w.storage.Put(ctx, key, int64(len(data)), cType, bytes.NewReader(data)); err != nil {
			return keys, fmt.Errorf("worker failed to put result #%d to storage: %w", i, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// loadRef reads an object and turns it into a data URI the compositor understands.
func (w *Worker) loadRef(ctx context.Context, key string) (string, error) {
	r, cType, err := w.storage.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer closeFileFlow(r)

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: object %q is empty", model.ErrImageLoad, key)
	}

	if !model.InImageTypeMap[cType] {
		cType = http.DetectContentType(data)
	}
	return imageproc.DataURI(cType, data), nil
}

func (w *Worker) dropResults(ctx context.Context, keys []string) {
	logger := mwlogger.LoggerFromContext(ctx)
	for _, key := range keys {
		if err := w.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to delete partial result from Storage")
		}
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}

	if err := res.Close(); err != nil {
		log.Println("Worker failed to close fileflow:", err)
	}
}
