package badger

import (
	"context"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// PutFile inserts a new file record and its child index entry.
func (s *BadgerStore) PutFile(ctx context.Context, file *metadata.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if file.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "file id is required")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if present, err := exists(txn, keyFile(file.ID)); err != nil {
			return err
		} else if present {
			return metadata.NewError(metadata.ErrConflict,
				fmt.Sprintf("file %s already exists", file.ID))
		}

		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(file.ID), data); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}
		if err := txn.Set(keyChildFile(file.Org, file.ParentID, file.ID), nil); err != nil {
			return fmt.Errorf("failed to store file index: %w", err)
		}
		return nil
	})
}

// GetFile returns the file record or ErrNotFound.
func (s *BadgerStore) GetFile(ctx context.Context, id metadata.FileID) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyFile(id),
			fmt.Sprintf("file %s not found", id))
		if err != nil {
			return err
		}
		file, err = decodeFile(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// UpdateFile replaces an existing file record, moving the child index
// entry when the parent changed.
func (s *BadgerStore) UpdateFile(ctx context.Context, file *metadata.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyFile(file.ID),
			fmt.Sprintf("file %s not found", file.ID))
		if err != nil {
			return err
		}
		previous, err := decodeFile(data)
		if err != nil {
			return err
		}

		if !sameParent(previous.ParentID, file.ParentID) {
			if err := txn.Delete(keyChildFile(previous.Org, previous.ParentID, previous.ID)); err != nil {
				return fmt.Errorf("failed to remove old file index: %w", err)
			}
			if err := txn.Set(keyChildFile(file.Org, file.ParentID, file.ID), nil); err != nil {
				return fmt.Errorf("failed to store file index: %w", err)
			}
		}

		encoded, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(file.ID), encoded); err != nil {
			return fmt.Errorf("failed to update file: %w", err)
		}
		return nil
	})
}

// DeleteFile removes a file record and its index entry. Idempotent.
func (s *BadgerStore) DeleteFile(ctx context.Context, id metadata.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFile(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger get failed: %w", err)
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("badger read failed: %w", err)
		}
		file, err := decodeFile(data)
		if err != nil {
			return err
		}

		if err := txn.Delete(keyChildFile(file.Org, file.ParentID, file.ID)); err != nil {
			return fmt.Errorf("failed to remove file index: %w", err)
		}
		if err := txn.Delete(keyFile(id)); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	})
}

// FilesByParent returns files directly under parent in creation order.
func (s *BadgerStore) FilesByParent(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID) ([]*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []*metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range scanIDs(txn, keyChildFilePrefix(org, parent)) {
			data, err := getRaw(txn, keyFile(metadata.FileID(id)),
				fmt.Sprintf("file %s not found", id))
			if err != nil {
				return err
			}
			file, err := decodeFile(data)
			if err != nil {
				return err
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortFiles(files)
	return files, nil
}

// sameParent compares two optional parent ids.
func sameParent(a, b *metadata.FolderID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sortFolders orders by CreatedAt ascending, id as tie-breaker, so
// cascade traversal and listings are deterministic.
func sortFolders(folders []*metadata.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if !folders[i].CreatedAt.Equal(folders[j].CreatedAt) {
			return folders[i].CreatedAt.Before(folders[j].CreatedAt)
		}
		return folders[i].ID < folders[j].ID
	})
}

func sortFiles(files []*metadata.File) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.Before(files[j].CreatedAt)
		}
		return files[i].ID < files[j].ID
	})
}
