package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// PutFolder inserts a new folder record and its child index entry.
func (s *BadgerStore) PutFolder(ctx context.Context, folder *metadata.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if folder.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "folder id is required")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if present, err := exists(txn, keyFolder(folder.ID)); err != nil {
			return err
		} else if present {
			return metadata.NewError(metadata.ErrConflict,
				fmt.Sprintf("folder %s already exists", folder.ID))
		}

		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return fmt.Errorf("failed to store folder: %w", err)
		}
		if err := txn.Set(keyChildFolder(folder.Org, folder.ParentID, folder.ID), nil); err != nil {
			return fmt.Errorf("failed to store folder index: %w", err)
		}
		return nil
	})
}

// GetFolder returns the folder or ErrNotFound.
func (s *BadgerStore) GetFolder(ctx context.Context, id metadata.FolderID) (*metadata.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *metadata.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyFolder(id),
			fmt.Sprintf("folder %s not found", id))
		if err != nil {
			return err
		}
		folder, err = decodeFolder(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// UpdateFolder replaces an existing folder record. When the parent
// changed (a move), the child index entry moves with it in the same
// transaction.
func (s *BadgerStore) UpdateFolder(ctx context.Context, folder *metadata.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyFolder(folder.ID),
			fmt.Sprintf("folder %s not found", folder.ID))
		if err != nil {
			return err
		}
		previous, err := decodeFolder(data)
		if err != nil {
			return err
		}

		if !sameParent(previous.ParentID, folder.ParentID) {
			if err := txn.Delete(keyChildFolder(previous.Org, previous.ParentID, previous.ID)); err != nil {
				return fmt.Errorf("failed to remove old folder index: %w", err)
			}
			if err := txn.Set(keyChildFolder(folder.Org, folder.ParentID, folder.ID), nil); err != nil {
				return fmt.Errorf("failed to store folder index: %w", err)
			}
		}

		encoded, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), encoded); err != nil {
			return fmt.Errorf("failed to update folder: %w", err)
		}
		return nil
	})
}

// DeleteFolder removes a folder record and its index entry. Idempotent.
func (s *BadgerStore) DeleteFolder(ctx context.Context, id metadata.FolderID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFolder(id))
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
		folder, err := decodeFolder(data)
		if err != nil {
			return err
		}

		if err := txn.Delete(keyChildFolder(folder.Org, folder.ParentID, folder.ID)); err != nil {
			return fmt.Errorf("failed to remove folder index: %w", err)
		}
		if err := txn.Delete(keyFolder(id)); err != nil {
			return fmt.Errorf("failed to delete folder: %w", err)
		}
		return nil
	})
}

// FoldersByParent returns the direct subfolders in creation order.
func (s *BadgerStore) FoldersByParent(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID) ([]*metadata.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folders []*metadata.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range scanIDs(txn, keyChildFolderPrefix(org, parent)) {
			data, err := getRaw(txn, keyFolder(metadata.FolderID(id)),
				fmt.Sprintf("folder %s not found", id))
			if err != nil {
				return err
			}
			folder, err := decodeFolder(data)
			if err != nil {
				return err
			}
			folders = append(folders, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortFolders(folders)
	return folders, nil
}

// FolderByName resolves a sibling name under parent, or ErrNotFound.
func (s *BadgerStore) FolderByName(ctx context.Context, org metadata.OrgID, parent *metadata.FolderID, name string) (*metadata.Folder, error) {
	folders, err := s.FoldersByParent(ctx, org, parent)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		if folder.Name == name {
			return folder, nil
		}
	}
	return nil, metadata.NewError(metadata.ErrNotFound,
		fmt.Sprintf("folder %q not found under parent", name))
}
