package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// PutOrganization inserts a new organization. The organization id and
// the name index entry are written in one transaction, so a duplicate
// name can never slip in between check and insert.
func (s *BadgerStore) PutOrganization(ctx context.Context, org *metadata.Organization) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if org.ID == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "organization id is required")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if present, err := exists(txn, keyOrg(org.ID)); err != nil {
			return err
		} else if present {
			return metadata.NewError(metadata.ErrConflict,
				fmt.Sprintf("organization %s already exists", org.ID))
		}

		if present, err := exists(txn, keyOrgName(org.Name)); err != nil {
			return err
		} else if present {
			return metadata.NewError(metadata.ErrConflict,
				fmt.Sprintf("organization name %q already taken", org.Name))
		}

		data, err := encodeOrg(org)
		if err != nil {
			return err
		}
		if err := txn.Set(keyOrg(org.ID), data); err != nil {
			return fmt.Errorf("failed to store organization: %w", err)
		}
		if err := txn.Set(keyOrgName(org.Name), []byte(org.ID)); err != nil {
			return fmt.Errorf("failed to store organization name index: %w", err)
		}
		return nil
	})
}

// GetOrganization returns the organization or ErrNotFound.
func (s *BadgerStore) GetOrganization(ctx context.Context, id metadata.OrgID) (*metadata.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var org *metadata.Organization
	err := s.db.View(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyOrg(id),
			fmt.Sprintf("organization %s not found", id))
		if err != nil {
			return err
		}
		org, err = decodeOrg(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// UpdateOrganization replaces an existing organization record,
// maintaining the name index if the name changed.
func (s *BadgerStore) UpdateOrganization(ctx context.Context, org *metadata.Organization) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := getRaw(txn, keyOrg(org.ID),
			fmt.Sprintf("organization %s not found", org.ID))
		if err != nil {
			return err
		}
		previous, err := decodeOrg(data)
		if err != nil {
			return err
		}

		if previous.Name != org.Name {
			if present, err := exists(txn, keyOrgName(org.Name)); err != nil {
				return err
			} else if present {
				return metadata.NewError(metadata.ErrConflict,
					fmt.Sprintf("organization name %q already taken", org.Name))
			}
			if err := txn.Delete(keyOrgName(previous.Name)); err != nil {
				return fmt.Errorf("failed to remove old name index: %w", err)
			}
			if err := txn.Set(keyOrgName(org.Name), []byte(org.ID)); err != nil {
				return fmt.Errorf("failed to store name index: %w", err)
			}
		}

		encoded, err := encodeOrg(org)
		if err != nil {
			return err
		}
		if err := txn.Set(keyOrg(org.ID), encoded); err != nil {
			return fmt.Errorf("failed to update organization: %w", err)
		}
		return nil
	})
}
