package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/storage"
	"github.com/templui/goalcoach/internal/validation"
)

var ErrInvalidAttachment = errors.New("invalid attachment")

// Attachment is an image sent along with a chat message. Data is base64,
// optionally as a data URL.
type Attachment struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Label is how the attachment is referred to in prompts.
func (a Attachment) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.MimeType
}

// Decode returns the raw attachment bytes.
func (a Attachment) Decode() ([]byte, error) {
	data := a.Data
	if strings.HasPrefix(data, "data:") {
		_, payload, ok := strings.Cut(data, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidAttachment)
		}
		data = payload
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}
	return raw, nil
}

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
	now      func() time.Time
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
		now:      time.Now,
	}
}

// Upload validates an attachment, stores it and records it for its owner.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID string, a Attachment) (*model.File, error) {
	data, err := a.Decode()
	if err != nil {
		return nil, err
	}

	mimeType, err := validation.ValidateFile(a.Name, data, validation.ImageConstraints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	ext := strings.ToLower(path.Ext(a.Name))
	if ext == "" {
		exts, _ := mime.ExtensionsByType(mimeType)
		if len(exts) > 0 {
			ext = exts[0]
		}
	}
	filename := uuid.New().String() + ext
	storagePath := path.Join("attachments", ownerType+"s", ownerID, filename)

	err = s.storage.Save(ctx, storagePath, bytes.NewReader(data), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         model.FileTypeAttachment,
		Filename:     filename,
		OriginalName: a.Name,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		StoragePath:  storagePath,
		CreatedAt:    s.now().UTC(),
	}

	err = s.fileRepo.Create(file)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return file, nil
}

func (s *FileService) Files(ownerType, ownerID string) ([]*model.File, error) {
	return s.fileRepo.Files(ownerType, ownerID)
}

// ByID returns a file owned by userID.
func (s *FileService) ByID(userID, fileID string) (*model.File, error) {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != userID {
		return nil, repository.ErrFileNotFound
	}
	return file, nil
}

func (s *FileService) URL(ctx context.Context, file *model.File) (string, error) {
	return s.storage.URL(ctx, file.StoragePath)
}

// Delete removes the record and, best effort, the stored object.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	file, err := s.ByID(userID, fileID)
	if err != nil {
		return err
	}

	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}
