package transport

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/UnendingLoop/CakeArtist/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrCanvasContext):
		return 500
	case errors.Is(err, model.ErrJobNotFound),
		errors.Is(err, model.ErrResultNotReady),
		errors.Is(err, model.ErrResultIndex):
		return 404
	case errors.Is(err, model.ErrImageLoad):
		return 422
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptyText),
		errors.Is(err, model.ErrTextTooLong),
		errors.Is(err, model.ErrNoImages),
		errors.Is(err, model.ErrTooManyImages),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrEmptyPhoto),
		errors.Is(err, model.ErrIncorrectStatus):
		return 400
	default:
		return 500
	}
}

// detectContentType доверяет заголовку формы, а если он пустой или octet-stream - сниффит первые байты
func detectContentType(f io.ReadSeeker, declared string) (string, error) {
	if model.InImageTypeMap[declared] {
		return declared, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return http.DetectContentType(head[:n]), nil
}

func closeFileFlow(res io.Closer) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
