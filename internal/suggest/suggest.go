// Package suggest decides where a personal photo should sit on a cake image.
// Remote suggesters ask a vision model, Fallback uses a fixed table per view.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
)

// PlacementSuggester always answers: on any trouble it returns the fallback spec for the view.
type PlacementSuggester interface {
	SuggestPlacement(ctx context.Context, base, photo string, view model.View) model.PlacementSpec
}

// Source is a suggester that is allowed to fail.
type Source interface {
	Suggest(ctx context.Context, base, photo string, view model.View) (model.PlacementSpec, error)
}

// VisionClient sends a prompt plus images to a multimodal model and returns its text reply.
type VisionClient interface {
	Complete(ctx context.Context, prompt string, images []string) (string, error)
}

// Fallback returns the fixed placement table.
type Fallback struct{}

func (Fallback) SuggestPlacement(_ context.Context, _, _ string, view model.View) model.PlacementSpec {
	return model.FallbackPlacement(view)
}

// Remote asks a vision model for a placement.
type Remote struct {
	client  VisionClient
	timeout time.Duration
}

func NewRemote(client VisionClient, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Remote{client: client, timeout: timeout}
}

func (r *Remote) Suggest(ctx context.Context, base, photo string, view model.View) (model.PlacementSpec, error) {
	if r.client == nil {
		return model.PlacementSpec{}, fmt.Errorf("%w: vision client is not configured", model.ErrSuggestionService)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.client.Complete(ctx, PlacementPrompt(view), []string{base, photo})
	if err != nil {
		return model.PlacementSpec{}, fmt.Errorf("%w: %v", model.ErrSuggestionService, err)
	}

	return ParsePlacement(reply, view)
}

// resilient absorbs errors of a Source and falls back to the table.
type resilient struct {
	src Source
}

// WithFallback turns a failing Source into a PlacementSuggester.
func WithFallback(src Source) PlacementSuggester {
	return &resilient{src: src}
}

func (r *resilient) SuggestPlacement(ctx context.Context, base, photo string, view model.View) model.PlacementSpec {
	spec, err := r.src.Suggest(ctx, base, photo, view)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Str("view", view.Hint()).Msg("Placement suggestion failed, using fallback")
		return model.FallbackPlacement(view)
	}
	return spec
}

// ParsePlacement extracts the first JSON object from a model reply.
// Missing fields keep the fallback values of the view, the result is clamped.
func ParsePlacement(reply string, view model.View) (model.PlacementSpec, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return model.PlacementSpec{}, fmt.Errorf("%w: no JSON object in reply", model.ErrSuggestionService)
	}

	spec := model.FallbackPlacement(view)
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return model.PlacementSpec{}, fmt.Errorf("%w: %v", model.ErrSuggestionService, err)
	}

	return spec.Clamp(), nil
}

// extractJSON returns the first well-formed JSON object found in text.
func extractJSON(text string) string {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > 0 {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return ""
}

// matchBrace returns the index of the brace closing text[start], or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// PlacementPrompt is the instruction sent to the vision model together with the cake image and the photo.
func PlacementPrompt(view model.View) string {
	var b strings.Builder

	b.WriteString("You are a cake decorator. The first image is a cake, the second image is a personal photo ")
	b.WriteString("that will be printed as an edible decoration on the cake.\n")
	fmt.Fprintf(&b, "The cake is shown in %s.\n", view.Label())
	b.WriteString("Choose where the photo should be placed. Rules:\n")
	b.WriteString("- put it on a blank or light, evenly frosted area of the cake;\n")
	b.WriteString("- do not cover decorations, lettering, candles or fruit;\n")
	b.WriteString("- prefer a circle, use a rectangle only for wide flat surfaces;\n")
	fmt.Fprintf(&b, "- size is the photo width as a fraction of the image width, between %.2f and %.2f;\n", model.MinSize, model.MaxSize)

	switch view {
	case model.ViewTop:
		b.WriteString("- from the top the photo should stay near the center of the cake surface;\n")
	case model.ViewFront:
		b.WriteString("- from the front the photo belongs to the upper center of the visible side;\n")
	case model.ViewSide:
		b.WriteString("- from the side keep the photo on the visible side wall, centered horizontally;\n")
	case model.ViewDiagonal:
		b.WriteString("- from a 3/4 angle a slight rotation that follows the cake perspective is welcome;\n")
	}

	fmt.Fprintf(&b, "- x and y are the photo center as fractions of width and height, between %.1f and %.1f;\n", model.MinCenter, model.MaxCenter)
	fmt.Fprintf(&b, "- rotation is in degrees between %.0f and %.0f, borderWidth in pixels between %.0f and %.0f.\n",
		model.MinRotation, model.MaxRotation, model.MinBorderWidth, model.MaxBorderWidth)
	b.WriteString("Answer with a single JSON object and nothing else:\n")
	b.WriteString(`{"x":0.5,"y":0.4,"size":0.35,"shape":"circle","rotation":0,"borderColor":"#FFFFFF","borderWidth":4}`)

	return b.String()
}
