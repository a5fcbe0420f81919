package tree

import (
	"context"
	"fmt"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/metadata"
)

// CreateOrganization creates an organization with the acting admin's
// chosen initial members. Only admins may create organizations; a
// member cannot bootstrap an org for themselves.
func (s *Service) CreateOrganization(ctx context.Context, actor metadata.UserID, name string, members []metadata.UserID) (*metadata.Organization, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, metadata.NewError(metadata.ErrInvalidArgument, "organization name must not be empty")
	}

	org := &metadata.Organization{
		ID:        metadata.OrgID(s.newID()),
		Name:      name,
		Members:   append([]metadata.UserID(nil), members...),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	logger.Info("created organization %s (%q) with %d members", org.ID, name, len(org.Members))
	return org, nil
}

// GetOrganization returns the organization record. Members may read
// their own organization; admins may read any.
func (s *Service) GetOrganization(ctx context.Context, actor metadata.UserID, org metadata.OrgID) (*metadata.Organization, error) {
	if err := s.gate.Require(ctx, actor, org); err != nil {
		return nil, err
	}
	return s.store.GetOrganization(ctx, org)
}

// AddMember adds a user to the organization. Admin only. Adding an
// existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, actor metadata.UserID, org metadata.OrgID, user metadata.UserID) (*metadata.Organization, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if user == "" {
		return nil, metadata.NewError(metadata.ErrInvalidArgument, "user id must not be empty")
	}

	record, err := s.store.GetOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	if record.HasMember(user) {
		return record, nil
	}

	record.Members = append(record.Members, user)
	if err := s.store.UpdateOrganization(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return record, nil
}

// RemoveMember removes a user from the organization. Admin only.
// Removing a non-member is a no-op. The user's uploads stay in place;
// membership only controls access, not ownership.
func (s *Service) RemoveMember(ctx context.Context, actor metadata.UserID, org metadata.OrgID, user metadata.UserID) (*metadata.Organization, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	record, err := s.store.GetOrganization(ctx, org)
	if err != nil {
		return nil, err
	}

	kept := record.Members[:0]
	for _, member := range record.Members {
		if member != user {
			kept = append(kept, member)
		}
	}
	if len(kept) == len(record.Members) {
		return record, nil
	}

	record.Members = kept
	if err := s.store.UpdateOrganization(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return record, nil
}

func (s *Service) requireAdmin(ctx context.Context, actor metadata.UserID) error {
	if actor == "" {
		return metadata.NewError(metadata.ErrForbidden, "no acting user")
	}
	admin, err := s.gate.IsAdmin(ctx, actor)
	if err != nil {
		return fmt.Errorf("admin check failed: %w", err)
	}
	if !admin {
		return metadata.NewError(metadata.ErrForbidden,
			fmt.Sprintf("user %s is not an administrator", actor))
	}
	return nil
}
