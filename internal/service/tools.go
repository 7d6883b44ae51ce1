package service

import (
	"strings"

	"github.com/UnendingLoop/CakeArtist/internal/model"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByUUID):
		req.Sort = "render_uid"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валидируем порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

func validateNormalizeRenderInfo(raw *model.RenderCreateData, clean *model.RenderJob) error {
	// имя получателя
	recipient, err := normalizeText(raw.Recipient)
	if err != nil {
		return err
	}
	clean.Recipient = recipient

	// количество исходников
	switch {
	case len(raw.Images) == 0:
		return model.ErrNoImages
	case len(raw.Images) > model.MaxJobImages:
		return model.ErrTooManyImages
	}

	// корректны ли исходники
	for _, img := range raw.Images {
		if !validUpload(&img) {
			return model.ErrEmptySource
		}
	}

	// корректно ли фото, если оно есть
	if raw.Photo != nil && !validUpload(raw.Photo) {
		return model.ErrEmptyPhoto
	}

	clean.Images = len(raw.Images)
	return nil
}

func validUpload(img *model.UploadedImage) bool {
	return img.File != nil && img.Size > 0 && model.InImageTypeMap[img.ContentType]
}
