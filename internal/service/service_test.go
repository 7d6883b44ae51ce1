package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

func upload(ct string) model.UploadedImage {
	return model.UploadedImage{File: newFakeFile("img"), ContentType: ct, Size: 3}
}

// CREATE - SUCCESS
func TestRenderService_Create_OK(t *testing.T) {
	var putKeys []string

	repo := &mockRepo{
		createFn: func(ctx context.Context, j *model.RenderJob) error {
			require.NotEqual(t, uuid.Nil, j.UID)
			require.Equal(t, model.StatusCreated, j.Status)
			require.Equal(t, "Alex", j.Recipient)
			require.Equal(t, 2, j.Images)
			require.Len(t, j.SourceKeys, 2)
			require.True(t, j.WithPhoto)
			return nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKeys = append(putKeys, key)
			return nil
		},
	}
	published := ""
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			published = string(key)
			return nil
		},
	}

	svc := NewRenderService(repo, pub, storage)
	photo := upload(model.PNG)
	job, err := svc.Create(context.Background(), &model.RenderCreateData{
		Recipient: "  Alex ",
		Images:    []model.UploadedImage{upload(model.JPEG), upload(model.PNG)},
		Photo:     &photo,
	})
	require.NoError(t, err)
	require.Equal(t, job.UID.String(), published)

	uid := job.UID.String()
	require.Equal(t, []string{
		"sources/" + uid + "/0.jpg",
		"sources/" + uid + "/1.png",
		"photos/" + uid + ".png",
	}, putKeys)
	require.Equal(t, "photos/"+uid+".png", job.PhotoKey)
}

// CREATE - VALIDATION FAIL
func TestRenderService_Create_Validation(t *testing.T) {
	tooMany := make([]model.UploadedImage, model.MaxJobImages+1)
	for i := range tooMany {
		tooMany[i] = upload(model.PNG)
	}
	badPhoto := model.UploadedImage{File: newFakeFile("x"), ContentType: "application/pdf", Size: 1}

	tests := []struct {
		name string
		data *model.RenderCreateData
		want error
	}{
		{"empty recipient", &model.RenderCreateData{Recipient: "  ", Images: []model.UploadedImage{upload(model.PNG)}}, model.ErrEmptyText},
		{"long recipient", &model.RenderCreateData{Recipient: strings.Repeat("я", model.MaxTextLength+1), Images: []model.UploadedImage{upload(model.PNG)}}, model.ErrTextTooLong},
		{"no images", &model.RenderCreateData{Recipient: "Alex"}, model.ErrNoImages},
		{"too many images", &model.RenderCreateData{Recipient: "Alex", Images: tooMany}, model.ErrTooManyImages},
		{"bad source type", &model.RenderCreateData{Recipient: "Alex", Images: []model.UploadedImage{upload("text/plain")}}, model.ErrEmptySource},
		{"empty source", &model.RenderCreateData{Recipient: "Alex", Images: []model.UploadedImage{{ContentType: model.PNG}}}, model.ErrEmptySource},
		{"bad photo", &model.RenderCreateData{Recipient: "Alex", Images: []model.UploadedImage{upload(model.PNG)}, Photo: &badPhoto}, model.ErrEmptyPhoto},
	}

	svc := RenderService{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// CREATE - STORAGE PUT FAIL, уже сохраненное подчищается
func TestRenderService_Create_StorageError(t *testing.T) {
	var deleted []string
	calls := 0
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			calls++
			if calls == 2 {
				return errors.New("storage is down")
			}
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		},
	}

	svc := RenderService{repo: &mockRepo{}, storage: storage, publisher: &mockPublisher{}}
	_, err := svc.Create(context.Background(), &model.RenderCreateData{
		Recipient: "Alex",
		Images:    []model.UploadedImage{upload(model.PNG), upload(model.PNG)},
	})
	require.ErrorIs(t, err, model.ErrCommon500)
	require.Len(t, deleted, 1)
	require.True(t, strings.HasSuffix(deleted[0], "/0.png"))
}

// CREATE - DB / PUBLISH FAIL
func TestRenderService_Create_DownstreamErrors(t *testing.T) {
	okStorage := &mockStorage{
		putFn:    func(context.Context, string, int64, string, io.Reader) error { return nil },
		deleteFn: func(context.Context, string) error { return nil },
	}

	svc := RenderService{
		repo:      &mockRepo{createFn: func(context.Context, *model.RenderJob) error { return errors.New("db down") }},
		storage:   okStorage,
		publisher: &mockPublisher{},
	}
	_, err := svc.Create(context.Background(), &model.RenderCreateData{Recipient: "Alex", Images: []model.UploadedImage{upload(model.PNG)}})
	require.ErrorIs(t, err, model.ErrCommon500)

	svc = RenderService{
		repo:    &mockRepo{createFn: func(context.Context, *model.RenderJob) error { return nil }},
		storage: okStorage,
		publisher: &mockPublisher{sendFn: func(context.Context, retry.Strategy, []byte, []byte) error {
			return errors.New("kafka down")
		}},
	}
	_, err = svc.Create(context.Background(), &model.RenderCreateData{Recipient: "Alex", Images: []model.UploadedImage{upload(model.PNG)}})
	require.ErrorIs(t, err, model.ErrCommon500)
}

// GET
func TestRenderService_Get(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		name    string
		id      string
		repoErr error
		want    error
	}{
		{"ok", id, nil, nil},
		{"bad id", "not-a-uuid", nil, model.ErrIncorrectID},
		{"not found", id, model.ErrJobNotFound, model.ErrJobNotFound},
		{"db error", id, errors.New("db down"), model.ErrCommon500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := RenderService{repo: &mockRepo{
				getFn: func(ctx context.Context, _ string) (*model.RenderJob, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &model.RenderJob{Status: model.StatusCreated}, nil
				},
			}}

			_, err := svc.Get(context.Background(), tt.id)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// GETLIST - параметры нормализуются до запроса в базу
func TestRenderService_GetList(t *testing.T) {
	svc := RenderService{repo: &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error) {
			require.Equal(t, 1, req.Page)
			require.Equal(t, 30, req.Limit)
			require.Equal(t, "render_uid", req.Sort)
			require.Equal(t, "ASC", req.Order)
			return []model.RenderJob{{}}, nil
		},
	}}

	res, err := svc.GetList(context.Background(), &model.ListRequest{Page: -1, Limit: 1000, Sort: " UID ", Order: "ascend"})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

// LOAD RESULT
func TestRenderService_LoadResult(t *testing.T) {
	id := uuid.New().String()
	done := &model.RenderJob{Status: model.StatusDone, ResultKeys: model.StringSlice{"results/x/0.jpg", "results/x/1.png"}}

	tests := []struct {
		name string
		job  *model.RenderJob
		n    int
		want error
	}{
		{"ok", done, 1, nil},
		{"not ready", &model.RenderJob{Status: model.StatusInProgress}, 0, model.ErrResultNotReady},
		{"index too big", done, 2, model.ErrResultIndex},
		{"negative index", done, -1, model.ErrResultIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := RenderService{
				repo: &mockRepo{getFn: func(context.Context, string) (*model.RenderJob, error) { return tt.job, nil }},
				storage: &mockStorage{getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
					require.Equal(t, "results/x/1.png", key)
					return io.NopCloser(strings.NewReader("png")), model.PNG, nil
				}},
			}

			rc, ct, err := svc.LoadResult(context.Background(), id, tt.n)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.PNG, ct)
			require.NoError(t, rc.Close())
		})
	}
}

// DELETE - удаляются все объекты задачи
func TestRenderService_Delete(t *testing.T) {
	id := uuid.New().String()
	job := &model.RenderJob{
		SourceKeys: model.StringSlice{"sources/x/0.png"},
		ResultKeys: model.StringSlice{"results/x/0.jpg"},
		PhotoKey:   "photos/x.png",
		Status:     model.StatusDone,
	}

	var deleted []string
	svc := RenderService{
		repo: &mockRepo{
			getFn:    func(context.Context, string) (*model.RenderJob, error) { return job, nil },
			deleteFn: func(context.Context, string) error { return nil },
		},
		storage: &mockStorage{deleteFn: func(ctx context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		}},
	}

	require.NoError(t, svc.Delete(context.Background(), id))
	require.ElementsMatch(t, []string{"sources/x/0.png", "results/x/0.jpg", "photos/x.png"}, deleted)
}

func TestRenderService_Delete_Errors(t *testing.T) {
	id := uuid.New().String()

	svc := RenderService{repo: &mockRepo{
		getFn: func(context.Context, string) (*model.RenderJob, error) { return nil, model.ErrJobNotFound },
	}}
	require.ErrorIs(t, svc.Delete(context.Background(), id), model.ErrJobNotFound)

	svc = RenderService{
		repo: &mockRepo{
			getFn:    func(context.Context, string) (*model.RenderJob, error) { return &model.RenderJob{SourceKeys: model.StringSlice{"a", "b"}}, nil },
			deleteFn: func(context.Context, string) error { return nil },
		},
		storage: &mockStorage{deleteFn: func(_ context.Context, key string) error {
			if key == "a" {
				return errors.New("minio down")
			}
			return nil
		}},
	}
	require.ErrorIs(t, svc.Delete(context.Background(), id), model.ErrCommon500)
}

// UPDATE STATUS
func TestRenderService_UpdateStatus(t *testing.T) {
	id := uuid.New().String()
	svc := RenderService{repo: &mockRepo{
		updateStatusFn: func(ctx context.Context, _ string, st model.Status) error {
			if st == model.StatusFailed {
				return model.ErrJobNotFound
			}
			return nil
		},
	}}

	require.NoError(t, svc.UpdateStatus(context.Background(), id, model.StatusInProgress))
	require.ErrorIs(t, svc.UpdateStatus(context.Background(), "bad", model.StatusDone), model.ErrIncorrectID)
	require.ErrorIs(t, svc.UpdateStatus(context.Background(), id, "weird"), model.ErrIncorrectStatus)
	require.ErrorIs(t, svc.UpdateStatus(context.Background(), id, model.StatusFailed), model.ErrJobNotFound)
}

// SAVE RESULT
func TestRenderService_SaveResult(t *testing.T) {
	svc := RenderService{repo: &mockRepo{
		saveResultFn: func(ctx context.Context, j *model.RenderJob) error {
			require.NotNil(t, j.UpdatedAt)
			return nil
		},
	}}
	require.NoError(t, svc.SaveResult(context.Background(), &model.RenderJob{Status: model.StatusDone}))

	svc = RenderService{repo: &mockRepo{
		saveResultFn: func(context.Context, *model.RenderJob) error { return errors.New("db down") },
	}}
	require.ErrorIs(t, svc.SaveResult(context.Background(), &model.RenderJob{Status: model.StatusFailed}), model.ErrCommon500)
}

// REVIVE ORPHANS
func TestRenderService_ReviveOrphans(t *testing.T) {
	var sent []string
	svc := RenderService{
		repo: &mockRepo{fetchOrphansFn: func(ctx context.Context, limit int) ([]string, error) {
			require.Equal(t, 20, limit)
			return []string{"a", "b"}, nil
		}},
		publisher: &mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			sent = append(sent, string(key))
			return nil
		}},
	}

	svc.ReviveOrphans(context.Background(), 20)
	require.Equal(t, []string{"a", "b"}, sent)
}
