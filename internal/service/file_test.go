package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
)

func newFileService(t *testing.T) (*FileService, *memoryStorage) {
	t.Helper()
	store := newMemoryStorage()
	s := NewFileService(repository.NewFileRepository(testDB(t)), store)
	s.now = fixedClock
	return s, store
}

func TestFileService_Upload(t *testing.T) {
	s, store := newFileService(t)
	ctx := context.Background()

	f, err := s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{
		Name:     "progress.png",
		MimeType: "image/jpeg", // the declared type is ignored
		Data:     "data:image/png;base64," + base64PNG(),
	})
	require.NoError(t, err)

	assert.Equal(t, "image/png", f.MimeType)
	assert.Equal(t, model.FileTypeAttachment, f.Type)
	assert.Equal(t, "progress.png", f.OriginalName)
	assert.Equal(t, int64(len(pngBytes)), f.Size)
	assert.True(t, strings.HasPrefix(f.StoragePath, "attachments/threads/t1/"))
	assert.True(t, strings.HasSuffix(f.StoragePath, ".png"))
	assert.Equal(t, pngBytes, store.objects[f.StoragePath])

	url, err := s.URL(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+f.StoragePath, url)
}

func TestFileService_UploadWithoutNameUsesDetectedExtension(t *testing.T) {
	s, _ := newFileService(t)

	f, err := s.Upload(context.Background(), "u1", repository.FileOwnerThread, "t1", Attachment{Data: base64PNG()})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(f.StoragePath, ".png"))
}

func TestFileService_UploadRejects(t *testing.T) {
	s, store := newFileService(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{Name: "a.png", Data: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidAttachment)

	_, err = s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{Name: "a.txt", Data: "aGVsbG8="})
	assert.ErrorIs(t, err, ErrInvalidAttachment)

	_, err = s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{Data: "data:image/png;base64"})
	assert.ErrorIs(t, err, ErrInvalidAttachment)

	store.saveErr = errBoom
	_, err = s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{Name: "a.png", Data: base64PNG()})
	assert.ErrorIs(t, err, errBoom)

	assert.Empty(t, store.objects)
}

func TestFileService_Delete(t *testing.T) {
	s, store := newFileService(t)
	ctx := context.Background()

	f, err := s.Upload(ctx, "u1", repository.FileOwnerThread, "t1", Attachment{Name: "a.png", Data: base64PNG()})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "u2", f.ID), repository.ErrFileNotFound)
	require.NoError(t, s.Delete(ctx, "u1", f.ID))
	assert.Empty(t, store.objects)

	files, err := s.Files(repository.FileOwnerThread, "t1")
	require.NoError(t, err)
	assert.Empty(t, files)
}
