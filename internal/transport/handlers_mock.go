package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/gin-gonic/gin"
)

type mockRenderService struct {
	createFn     func(ctx context.Context, d *model.RenderCreateData) (*model.RenderJob, error)
	getFn        func(ctx context.Context, id string) (*model.RenderJob, error)
	deleteFn     func(ctx context.Context, id string) error
	loadResultFn func(ctx context.Context, id string, n int) (io.ReadCloser, string, error)
	getListFn    func(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error)
}

func (m *mockRenderService) Create(ctx context.Context, d *model.RenderCreateData) (*model.RenderJob, error) {
	return m.createFn(ctx, d)
}

func (m *mockRenderService) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	return m.getFn(ctx, id)
}

func (m *mockRenderService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRenderService) LoadResult(ctx context.Context, id string, n int) (io.ReadCloser, string, error) {
	return m.loadResultFn(ctx, id, n)
}

func (m *mockRenderService) GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error) {
	return m.getListFn(ctx, req)
}

type mockArtistService struct {
	addTextFn   func(ctx context.Context, src, text, label string) (string, error)
	batchFn     func(ctx context.Context, images []string, name string) ([]string, error)
	withPhotoFn func(ctx context.Context, base, photo, view string) (string, error)
	placementFn func(ctx context.Context, base, photo, view string) model.PlacementSpec
}

func (m *mockArtistService) AddTextToCake(ctx context.Context, src, text, label string) (string, error) {
	return m.addTextFn(ctx, src, text, label)
}

func (m *mockArtistService) ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error) {
	return m.batchFn(ctx, images, name)
}

func (m *mockArtistService) ProcessCakeWithPhoto(ctx context.Context, base, photo, view string) (string, error) {
	return m.withPhotoFn(ctx, base, photo, view)
}

func (m *mockArtistService) SuggestPlacement(ctx context.Context, base, photo, view string) model.PlacementSpec {
	return m.placementFn(ctx, base, photo, view)
}

func init() {
	gin.SetMode(gin.TestMode)
}
