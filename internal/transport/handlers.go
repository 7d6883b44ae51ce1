// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type Handler struct {
	renders RenderService
	artist  ArtistService
}

type RenderService interface {
	Create(ctx context.Context, data *model.RenderCreateData) (*model.RenderJob, error)
	Get(ctx context.Context, id string) (*model.RenderJob, error)
	Delete(ctx context.Context, id string) error // удалить как в базе, так и в minio
	LoadResult(ctx context.Context, id string, n int) (io.ReadCloser, string, error)
	GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error)
}

type ArtistService interface {
	AddTextToCake(ctx context.Context, src, text, viewLabel string) (string, error)
	ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error)
	ProcessCakeWithPhoto(ctx context.Context, baseRef, photoRef, viewHint string) (string, error)
	SuggestPlacement(ctx context.Context, baseRef, photoRef, viewHint string) model.PlacementSpec
}

func NewHandler(renders RenderService, artist ArtistService) *Handler {
	return &Handler{
		renders: renders,
		artist:  artist,
	}
}

func (h Handler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h Handler) CreateRender(ctx *ginext.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "multipart form is required"})
		return
	}

	// парсинг исходников
	headers := form.File["images"]
	if len(headers) == 0 {
		ctx.JSON(400, map[string]string{"error": model.ErrNoImages.Error()})
		return
	}
	if len(headers) > model.MaxJobImages {
		ctx.JSON(400, map[string]string{"error": model.ErrTooManyImages.Error()})
		return
	}

	var data model.RenderCreateData
	data.Recipient = ctx.PostForm("recipient")
	data.Images = make([]model.UploadedImage, 0, len(headers))
	for _, fh := range headers {
		img, err := openUpload(fh)
		if err != nil {
			ctx.JSON(400, map[string]string{"error": model.ErrEmptySource.Error()})
			return
		}
		defer closeFileFlow(img.File)
		data.Images = append(data.Images, img)
	}

	// фото опционально
	if photos := form.File["photo"]; len(photos) > 0 {
		img, err := openUpload(photos[0])
		if err != nil {
			ctx.JSON(400, map[string]string{"error": model.ErrEmptyPhoto.Error()})
			return
		}
		defer closeFileFlow(img.File)
		data.Photo = &img
	}

	// передаем в сервис
	res, err := h.renders.Create(ctx.Request.Context(), &data)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

func (h Handler) GetAllRenders(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.renders.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h Handler) GetRender(ctx *ginext.Context) {
	res, err := h.renders.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h Handler) LoadResult(ctx *ginext.Context) {
	id := ctx.Param("id")
	n, err := strconv.Atoi(ctx.Param("n"))
	if err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectQuery.Error()})
		return
	}

	res, cType, err := h.renders.LoadResult(ctx.Request.Context(), id, n)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for render %q: %v", n, id, err)
	}
}

func (h Handler) DeleteRender(ctx *ginext.Context) {
	if err := h.renders.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

func openUpload(fh *multipart.FileHeader) (model.UploadedImage, error) {
	f, err := fh.Open()
	if err != nil {
		return model.UploadedImage{}, err
	}

	cType, err := detectContentType(f, fh.Header.Get("Content-Type"))
	if err != nil {
		closeFileFlow(f)
		return model.UploadedImage{}, err
	}

	return model.UploadedImage{File: f, ContentType: cType, Size: fh.Size}, nil
}
