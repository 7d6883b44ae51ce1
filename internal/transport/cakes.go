package transport

import (
	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/wb-go/wbf/ginext"
)

// AddText - POST /cakes/text
func (h Handler) AddText(ctx *ginext.Context) {
	var req model.TextOverlayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.artist.AddTextToCake(ctx.Request.Context(), req.Image, req.Text, req.View)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]string{"image": res})
}

// AddTextBatch - POST /cakes/text/batch
func (h Handler) AddTextBatch(ctx *ginext.Context) {
	var req model.TextBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.artist.ProcessImageArray(ctx.Request.Context(), req.Images, req.Text)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string][]string{"images": res})
}

// AddPhoto - POST /cakes/photo
func (h Handler) AddPhoto(ctx *ginext.Context) {
	var req model.PhotoOverlayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.artist.ProcessCakeWithPhoto(ctx.Request.Context(), req.Image, req.Photo, req.View)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]string{"image": res})
}

// SuggestPlacement - POST /cakes/placement, без отрисовки
func (h Handler) SuggestPlacement(ctx *ginext.Context) {
	var req model.PhotoOverlayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}
	if req.Image == "" || req.Photo == "" {
		ctx.JSON(400, map[string]string{"error": "image and photo are required"})
		return
	}

	ctx.JSON(200, h.artist.SuggestPlacement(ctx.Request.Context(), req.Image, req.Photo, req.View))
}
