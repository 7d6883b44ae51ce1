package main

import (
	"context"
	"io"

	"github.com/UnendingLoop/CakeArtist/internal/model"
)

type RenderAPIService interface {
	Create(ctx context.Context, data *model.RenderCreateData) (*model.RenderJob, error)
	Get(ctx context.Context, id string) (*model.RenderJob, error)
	LoadResult(ctx context.Context, id string, n int) (io.ReadCloser, string, error)
	GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error)
	Delete(ctx context.Context, id string) error
	ReviveOrphans(ctx context.Context, limit int)
}

type ArtistAPIService interface {
	AddTextToCake(ctx context.Context, src, text, viewLabel string) (string, error)
	ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error)
	ProcessCakeWithPhoto(ctx context.Context, baseRef, photoRef, viewHint string) (string, error)
	SuggestPlacement(ctx context.Context, baseRef, photoRef, viewHint string) model.PlacementSpec
}
