package storage

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/db"

	"github.com/google/uuid"
)

// Folder names mirror the app's blob paths.
const (
	FolderProfilePictures = "profile_pictures"
	FolderPinImages       = "pin_images"
)

var validFolders = map[string]struct{}{
	FolderProfilePictures: {},
	FolderPinImages:       {},
}

var ErrInvalidFolder = errors.New("unknown storage folder")

type Object struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db       db.Querier
	uploader Uploader
}

func NewService(q db.Querier, up Uploader) *Service {
	return &Service{db: q, uploader: up}
}

// Upload pushes the file to blob storage and records it in the uploads
// ledger, which account deletion uses for bookkeeping.
func (s *Service) Upload(ctx context.Context, userID, folder string, file multipart.File) (Object, error) {
	if _, ok := validFolders[folder]; !ok {
		return Object{}, ErrInvalidFolder
	}
	if s.uploader == nil {
		return Object{}, errors.New("blob storage not configured")
	}

	url, err := s.uploader.Upload(ctx, file, folder)
	if err != nil {
		return Object{}, err
	}

	obj := Object{
		ID:     uuid.NewString(),
		UserID: userID,
		URL:    url,
		Kind:   folder,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, obj.ID, obj.UserID, obj.URL, obj.Kind)
	if err := row.Scan(&obj.CreatedAt); err != nil {
		return Object{}, err
	}
	return obj, nil
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]Object, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, url, kind, created_at
		FROM storage_objects WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var o Object
		if err := rows.Scan(&o.ID, &o.UserID, &o.URL, &o.Kind, &o.CreatedAt); err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}
