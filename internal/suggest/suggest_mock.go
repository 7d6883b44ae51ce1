package suggest

import (
	"context"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/model"
)

type VisionClientMock struct {
	CompleteFunc func(ctx context.Context, prompt string, images []string) (string, error)
}

func (m *VisionClientMock) Complete(ctx context.Context, prompt string, images []string) (string, error) {
	return m.CompleteFunc(ctx, prompt, images)
}

type SourceMock struct {
	SuggestFunc func(ctx context.Context, base, photo string, view model.View) (model.PlacementSpec, error)
}

func (m *SourceMock) Suggest(ctx context.Context, base, photo string, view model.View) (model.PlacementSpec, error) {
	return m.SuggestFunc(ctx, base, photo, view)
}

type StoreMock struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key, value string, ttl time.Duration) error
}

func (m *StoreMock) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}

func (m *StoreMock) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.SetFunc(ctx, key, value, ttl)
}
