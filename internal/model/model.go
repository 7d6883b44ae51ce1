// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusDone       Status = "done"
)

// OrphanAfter - через сколько без обновлений задача считается брошенной
const OrphanAfter = 10 * time.Minute

// IsOrphaned reports whether a created/in_progress job has not been touched for OrphanAfter.
func (j *RenderJob) IsOrphaned(now time.Time) bool {
	if j.Status != StatusCreated && j.Status != StatusInProgress {
		return false
	}
	return j.UpdatedAt != nil && now.Sub(*j.UpdatedAt) >= OrphanAfter
}

var StatusMap = map[Status]bool{
	StatusCreated:    true,
	StatusInProgress: true,
	StatusFailed:     true,
	StatusDone:       true,
}

//---------------------

// RenderJob - асинхронная задача на сборку набора изображений торта
type RenderJob struct {
	UID        uuid.UUID   `json:"uid"`
	Recipient  string      `json:"recipient"`
	SourceKeys StringSlice `json:"-"`
	PhotoKey   string      `json:"-"`
	ResultKeys StringSlice `json:"-"`
	Images     int         `json:"images"`
	WithPhoto  bool        `json:"with_photo"`
	Status     Status      `json:"status,omitempty"`
	ErrMsg     StringSlice `json:"error,omitempty"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

// UploadedImage - один файл из multipart-формы
type UploadedImage struct {
	File        multipart.File
	ContentType string
	Size        int64
}

type RenderCreateData struct {
	Recipient string
	Images    []UploadedImage
	Photo     *UploadedImage
}

// Лимиты на размер набора
const (
	MaxJobImages  = 8
	MaxTextLength = 64
)

//---------------------

// Sync compositing requests, carried as JSON.

type TextOverlayRequest struct {
	Image string `json:"image"`
	Text  string `json:"text"`
	View  string `json:"view"`
}

type TextBatchRequest struct {
	Images []string `json:"images"`
	Text   string   `json:"text"`
}

type PhotoOverlayRequest struct {
	Image string `json:"image"`
	Photo string `json:"photo"`
	View  string `json:"view"`
}

// ------------------

var (
	ErrCommon500       error = errors.New("something went wrong. Try again later") // 500
	ErrIncorrectQuery  error = errors.New("incorrect query parameters")            // 400
	ErrIncorrectID     error = errors.New("incorrect render UUID")                 // 400
	ErrJobNotFound     error = errors.New("specified render UUID doesn't exist")   // 404
	ErrResultNotReady  error = errors.New("requested render is not processed yet") // 404
	ErrResultIndex     error = errors.New("render has no result with such index")  // 404
	ErrEmptyText       error = errors.New("empty text provided")                   // 400
	ErrTextTooLong     error = errors.New("text is too long")                      // 400
	ErrNoImages        error = errors.New("no images provided")                    // 400
	ErrTooManyImages   error = errors.New("too many images provided")              // 400
	ErrEmptySource     error = errors.New("empty/incorrect source image provided") // 400
	ErrEmptyPhoto      error = errors.New("empty/incorrect photo provided")        // 400
	ErrIncorrectStatus error = errors.New("incorrect status provided")             // 400

	// ErrImageLoad - ссылку на изображение не удалось скачать или декодировать
	ErrImageLoad error = errors.New("image could not be loaded") // 422
	// ErrCanvasContext - не удалось подготовить поверхность для рисования
	ErrCanvasContext error = errors.New("drawing surface could not be acquired") // 500
	// ErrSuggestionService never leaves the suggest package, it is always absorbed into a fallback placement.
	ErrSuggestionService error = errors.New("placement suggestion service failed")
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	WEBP: ".webp",
}

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
	WEBP: true,
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
