package service

import (
	"bytes"
	"context"
	"image"
	"io"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/wb-go/wbf/retry"
)

// MOCK RESPOSITORY

type mockRepo struct {
	createFn       func(ctx context.Context, j *model.RenderJob) error
	getFn          func(ctx context.Context, id string) (*model.RenderJob, error)
	getListFn      func(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error)
	deleteFn       func(ctx context.Context, id string) error
	updateStatusFn func(ctx context.Context, id string, st model.Status) error
	saveResultFn   func(ctx context.Context, j *model.RenderJob) error
	fetchOrphansFn func(ctx context.Context, limit int) ([]string, error)
}

func (m *mockRepo) Create(ctx context.Context, j *model.RenderJob) error {
	return m.createFn(ctx, j)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error) {
	return m.getListFn(ctx, req)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateStatusFn(ctx, id, st)
}

func (m *mockRepo) SaveResult(ctx context.Context, j *model.RenderJob) error {
	return m.saveResultFn(ctx, j)
}

func (m *mockRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	return m.fetchOrphansFn(ctx, limit)
}

// MOCK STORAGE

type mockStorage struct {
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK ARTIST DEPS

type mockLoader struct {
	decodeFn func(ctx context.Context, ref string) (image.Image, error)
}

func (m *mockLoader) Decode(ctx context.Context, ref string) (image.Image, error) {
	return m.decodeFn(ctx, ref)
}

type mockTextRenderer struct {
	overlayFn func(base image.Image, text string, style model.ViewStyle) (*image.NRGBA, error)
}

func (m *mockTextRenderer) OverlayText(base image.Image, text string, style model.ViewStyle) (*image.NRGBA, error) {
	return m.overlayFn(base, text, style)
}

type mockSuggester struct {
	suggestFn func(ctx context.Context, base, photo string, view model.View) model.PlacementSpec
}

func (m *mockSuggester) SuggestPlacement(ctx context.Context, base, photo string, view model.View) model.PlacementSpec {
	return m.suggestFn(ctx, base, photo, view)
}

// MOCK для multipart.File
type fakeMultipartFile struct {
	*bytes.Reader
}

func (f *fakeMultipartFile) Close() error {
	return nil
}

func newFakeFile(s string) *fakeMultipartFile {
	return &fakeMultipartFile{Reader: bytes.NewReader([]byte(s))}
}
