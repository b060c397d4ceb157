package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalcoach/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileOwnerThread owns chat attachments.
const FileOwnerThread = "thread"

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	Files(ownerType, ownerID string) ([]*model.File, error)
	Delete(id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, user_id, owner_type, owner_id, type, filename, original_name, mime_type, size, storage_path, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		file.OwnerType,
		file.OwnerID,
		file.Type,
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := r.db.Get(file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	file.CreatedAt = utc(file.CreatedAt)

	return file, nil
}

// Files lists an owner's files, newest first.
func (r *fileRepository) Files(ownerType, ownerID string) ([]*model.File, error) {
	files := []*model.File{}
	query := `SELECT * FROM files WHERE owner_type = $1 AND owner_id = $2 ORDER BY created_at DESC`

	err := r.db.Select(&files, query, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		f.CreatedAt = utc(f.CreatedAt)
	}

	return files, nil
}

func (r *fileRepository) Delete(id string) error {
	query := `DELETE FROM files WHERE id = $1`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}
