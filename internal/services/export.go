package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goaltrackr/apiserver/internal/storage"
	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/goaltrackr/apiserver/types"
	"github.com/google/uuid"
)

const exportContentType = "application/json"

// ObjectStore is the subset of object storage used by exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ExportService writes and reads per-user JSON snapshots of goals and notes.
type ExportService struct {
	goals   GoalRepository
	notes   ProgressRepository
	objects ObjectStore
	now     func() time.Time
}

func NewExportService(goals GoalRepository, notes ProgressRepository, objects ObjectStore) *ExportService {
	return &ExportService{goals: goals, notes: notes, objects: objects, now: time.Now}
}

// Create snapshots everything the user owns and uploads it.
func (s *ExportService) Create(ctx context.Context, identity types.Identity) (types.Export, error) {
	goals, err := s.goals.ListByOwner(ctx, identity.ID)
	if err != nil {
		return types.Export{}, err
	}
	notes, err := s.notes.ListByOwner(ctx, identity.ID)
	if err != nil {
		return types.Export{}, err
	}

	now := s.now().UTC()
	data, err := json.Marshal(types.ExportSnapshot{
		User:       identity,
		ExportedAt: now,
		Goals:      goals,
		Notes:      notes,
	})
	if err != nil {
		return types.Export{}, err
	}

	hash := sha256.Sum256(data)
	export := types.Export{
		ID:        uuid.NewString(),
		SHA256:    hex.EncodeToString(hash[:]),
		Goals:     len(goals),
		Notes:     len(notes),
		CreatedAt: now,
	}
	export.ObjectKey = exportKey(identity.ID, export.ID)

	if err := s.objects.Put(ctx, export.ObjectKey, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return types.Export{}, fmt.Errorf("upload export: %w", err)
	}
	return export, nil
}

// Open returns the stored snapshot. Exports are looked up under the caller's
// own prefix, so another user's export id is store.ErrNotFound.
func (s *ExportService) Open(ctx context.Context, userID, exportID string) (io.ReadCloser, error) {
	if !isUUID(exportID) {
		return nil, store.ErrNotFound
	}

	rc, err := s.objects.Get(ctx, exportKey(userID, exportID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

// Delete removes one of the caller's exports. Object stores treat deleting a
// missing key as success, so existence is checked first.
func (s *ExportService) Delete(ctx context.Context, userID, exportID string) error {
	rc, err := s.Open(ctx, userID, exportID)
	if err != nil {
		return err
	}
	_ = rc.Close()

	if err := s.objects.Delete(ctx, exportKey(userID, exportID)); err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	return nil
}

func exportKey(userID, exportID string) string {
	return fmt.Sprintf("exports/%s/%s.json", userID, exportID)
}
