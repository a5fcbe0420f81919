package tree

import (
	"context"
	"fmt"
	"io"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// Upload describes a file upload. FolderID nil targets the
// organization's root level.
type Upload struct {
	Org         metadata.OrgID
	FolderID    *metadata.FolderID
	Name        string
	Data        []byte
	MimeType    string
	Description string
	Tags        []string
}

// UploadFile stores the bytes under a name-path key and creates the
// file record. The basename is minted from the upload instant, so
// repeated uploads of the same name to the same folder coexist.
//
// The blob write happens first. If the record insert then fails, the
// just-written object is deleted again so a failed upload does not
// leak an unreferenced blob; a failed cleanup is only logged since the
// orphan is invisible to the tree either way.
func (s *Service) UploadFile(ctx context.Context, actor metadata.UserID, upload Upload) (*metadata.File, error) {
	if err := s.gate.Require(ctx, actor, upload.Org); err != nil {
		return nil, err
	}
	if err := validateName(upload.Name); err != nil {
		return nil, err
	}

	if upload.FolderID != nil {
		folder, err := s.store.GetFolder(ctx, *upload.FolderID)
		if err != nil {
			return nil, err
		}
		if folder.Org != upload.Org {
			return nil, metadata.NewError(metadata.ErrInvalidArgument,
				fmt.Sprintf("folder %s belongs to another organization", *upload.FolderID))
		}
	}

	// The shared org lock keeps ancestor names stable while the key is
	// derived and the object written; the level lock serializes against
	// other mutations of the same parent.
	release := s.orgLocks.rlock(string(upload.Org))
	defer release()
	unlock := s.locks.lock(lockName(upload.Org, upload.FolderID))
	defer unlock()

	segments, err := pathSegments(ctx, s.store, upload.FolderID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	basename := NewBasename(upload.Name, now)
	key := joinKey(segments, basename)

	if err := s.blobs.Put(ctx, key, upload.Data, upload.MimeType); err != nil {
		return nil, fmt.Errorf("failed to store file bytes: %w", err)
	}

	file := &metadata.File{
		ID:          metadata.FileID(s.newID()),
		Name:        upload.Name,
		Basename:    basename,
		Org:         upload.Org,
		ParentID:    upload.FolderID,
		PhysicalKey: key,
		Size:        int64(len(upload.Data)),
		MimeType:    upload.MimeType,
		Description: upload.Description,
		Tags:        upload.Tags,
		CreatorID:   actor,
		CreatedAt:   now,
	}
	if err := s.store.PutFile(ctx, file); err != nil {
		if cleanupErr := s.blobs.Delete(ctx, key); cleanupErr != nil {
			logger.Warn("failed to clean up blob %s after record insert failure: %v", key, cleanupErr)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	logger.Debug("uploaded file %s as %s (%d bytes)", file.ID, key, file.Size)
	return file, nil
}

// GetFile returns the file record.
func (s *Service) GetFile(ctx context.Context, actor metadata.UserID, fileID metadata.FileID) (*metadata.File, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, actor, file.Org); err != nil {
		return nil, err
	}
	return file, nil
}

// DownloadFile returns the file record along with its content stream.
// The caller owns the ReadCloser.
func (s *Service) DownloadFile(ctx context.Context, actor metadata.UserID, fileID metadata.FileID) (*metadata.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, actor, fileID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.blobs.Get(ctx, file.PhysicalKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return file, reader, nil
}

// FileUpdate carries the mutable file fields. Nil fields keep their
// current value. The display name has no physical effect: the basename
// and blob key were fixed at upload, so no migration happens here.
type FileUpdate struct {
	Name        *string
	Description *string
	Tags        *[]string
}

// UpdateFile applies a metadata-only update to the file record.
func (s *Service) UpdateFile(ctx context.Context, actor metadata.UserID, fileID metadata.FileID, update FileUpdate) (*metadata.File, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, actor, file.Org); err != nil {
		return nil, err
	}

	if update.Name != nil {
		if err := validateName(*update.Name); err != nil {
			return nil, err
		}
		file.Name = *update.Name
	}
	if update.Description != nil {
		file.Description = *update.Description
	}
	if update.Tags != nil {
		file.Tags = *update.Tags
	}

	if err := s.store.UpdateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to update file record: %w", err)
	}
	return file, nil
}

// DeleteFile removes a single file: blob first, then record. A blob
// delete failure keeps the record so the file stays visible and the
// delete can be retried.
func (s *Service) DeleteFile(ctx context.Context, actor metadata.UserID, fileID metadata.FileID) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.gate.Require(ctx, actor, file.Org); err != nil {
		return err
	}

	release := s.orgLocks.rlock(string(file.Org))
	defer release()
	unlock := s.locks.lock(lockName(file.Org, file.ParentID))
	defer unlock()

	if err := s.removeFile(ctx, file); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}
