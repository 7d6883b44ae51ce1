package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/UnendingLoop/CakeArtist/internal/imageproc"
	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
	"github.com/UnendingLoop/CakeArtist/internal/suggest"
	"golang.org/x/sync/errgroup"
)

// ImageLoader - откуда берутся исходники (data URI, http(s), голый base64)
type ImageLoader interface {
	Decode(ctx context.Context, ref string) (image.Image, error)
}

// TextRenderer - отрисовка надписи по стилю ракурса
type TextRenderer interface {
	OverlayText(base image.Image, text string, style model.ViewStyle) (*image.NRGBA, error)
}

// Artist runs the synchronous compositing operations on inline image references.
type Artist struct {
	loader    ImageLoader
	suggester suggest.PlacementSuggester
	text      TextRenderer
}

func NewArtist(loader ImageLoader, sugg suggest.PlacementSuggester, text TextRenderer) *Artist {
	if sugg == nil {
		sugg = suggest.Fallback{}
	}
	return &Artist{loader: loader, suggester: sugg, text: text}
}

// SuggestPlacement never fails, on any trouble it returns the fallback spec of the view.
func (a *Artist) SuggestPlacement(ctx context.Context, baseRef, photoRef, viewHint string) model.PlacementSpec {
	return a.suggester.SuggestPlacement(ctx, baseRef, photoRef, model.ViewFromHint(viewHint))
}

// ProcessCakeWithPhoto places the photo onto the cake and returns a PNG data URI.
func (a *Artist) ProcessCakeWithPhoto(ctx context.Context, baseRef, photoRef, viewHint string) (string, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	view := model.ViewFromHint(viewHint)

	var base, photo image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = a.loader.Decode(gctx, baseRef)
		return err
	})
	g.Go(func() error {
		var err error
		photo, err = a.loader.Decode(gctx, photoRef)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	spec := a.suggester.SuggestPlacement(ctx, baseRef, photoRef, view)

	out, err := imageproc.CompositePhoto(base, photo, spec)
	if err != nil {
		return "", err
	}

	data, err := imageproc.EncodePNG(out)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode photo composite")
		return "", model.ErrCommon500
	}

	return imageproc.DataURI(model.PNG, data), nil
}

// AddTextToCake draws text with the style of the labeled view and returns a JPEG data URI.
func (a *Artist) AddTextToCake(ctx context.Context, src, text, viewLabel string) (string, error) {
	text, err := normalizeText(text)
	if err != nil {
		return "", err
	}
	return a.addText(ctx, src, text, model.StyleForLabel(viewLabel))
}

// ProcessImageArray writes the name on every image, styling them by canonical view order.
// Either every image succeeds or the whole batch fails.
func (a *Artist) ProcessImageArray(ctx context.Context, images []string, name string) ([]string, error) {
	switch {
	case len(images) == 0:
		return nil, model.ErrNoImages
	case len(images) > model.MaxJobImages:
		return nil, model.ErrTooManyImages
	}

	name, err := normalizeText(name)
	if err != nil {
		return nil, err
	}

	results := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range images {
		g.Go(func() error {
			out, err := a.addText(gctx, ref, name, model.StyleFor(model.ViewAt(i)))
			if err != nil {
				return fmt.Errorf("image #%d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (a *Artist) addText(ctx context.Context, src, text string, style model.ViewStyle) (string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	base, err := a.loader.Decode(ctx, src)
	if err != nil {
		return "", err
	}

	out, err := a.text.OverlayText(base, text, style)
	if err != nil {
		if errors.Is(err, model.ErrCanvasContext) {
			return "", err
		}
		logger.Error().Err(err).Msg("Failed to draw text overlay")
		return "", model.ErrCommon500
	}

	data, err := imageproc.EncodeJPEG(out, imageproc.TextJPEGQuality)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode text overlay")
		return "", model.ErrCommon500
	}

	return imageproc.DataURI(model.JPEG, data), nil
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", model.ErrEmptyText
	case utf8.RuneCountInString(text) > model.MaxTextLength:
		return "", model.ErrTextTooLong
	}
	return text, nil
}
