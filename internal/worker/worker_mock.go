package worker

import (
	"context"
	"io"

	"github.com/UnendingLoop/CakeArtist/internal/model"
)

type mockWorkerService struct {
	getFn        func(ctx context.Context, id string) (*model.RenderJob, error)
	updateFn     func(ctx context.Context, id string, st model.Status) error
	saveResultFn func(ctx context.Context, job *model.RenderJob) error
}

func (m *mockWorkerService) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	return m.getFn(ctx, id)
}

func (m *mockWorkerService) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateFn(ctx, id, st)
}

func (m *mockWorkerService) SaveResult(ctx context.Context, job *model.RenderJob) error {
	return m.saveResultFn(ctx, job)
}

//----------------------------------

type mockStorage struct {
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, key)
}

//----------------------------------

type mockCompositor struct {
	batchFn     func(ctx context.Context, images []string, name string) ([]string, error)
	withPhotoFn func(ctx context.Context, base, photo, view string) (string, error)
}

func (m *mockCompositor) ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error) {
	return m.batchFn(ctx, images, name)
}

func (m *mockCompositor) ProcessCakeWithPhoto(ctx context.Context, base, photo, view string) (string, error) {
	return m.withPhotoFn(ctx, base, photo, view)
}
