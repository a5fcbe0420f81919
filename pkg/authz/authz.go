// Package authz implements the authorization gate guarding every tree
// operation. The gate answers one question: may this user act on this
// organization's tree? Session handling and credential verification
// belong to the external auth subsystem; this package only consumes
// its identity output.
package authz

import (
	"context"
	"fmt"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// Authorizer supplies membership and admin checks.
type Authorizer interface {
	// IsMember reports whether user belongs to the organization.
	IsMember(ctx context.Context, org metadata.OrgID, user metadata.UserID) (bool, error)

	// IsAdmin reports whether user holds the admin role. Admins bypass
	// membership checks.
	IsAdmin(ctx context.Context, user metadata.UserID) (bool, error)
}

// StoreAuthorizer implements Authorizer against the metadata store's
// organization records plus a static admin set from configuration.
type StoreAuthorizer struct {
	store  metadata.Store
	admins map[metadata.UserID]struct{}
}

// NewStoreAuthorizer creates an authorizer reading membership from
// store. The admins list comes from configuration.
func NewStoreAuthorizer(store metadata.Store, admins []metadata.UserID) *StoreAuthorizer {
	adminSet := make(map[metadata.UserID]struct{}, len(admins))
	for _, admin := range admins {
		adminSet[admin] = struct{}{}
	}
	return &StoreAuthorizer{store: store, admins: adminSet}
}

func (a *StoreAuthorizer) IsMember(ctx context.Context, org metadata.OrgID, user metadata.UserID) (bool, error) {
	record, err := a.store.GetOrganization(ctx, org)
	if err != nil {
		return false, err
	}
	return record.HasMember(user), nil
}

func (a *StoreAuthorizer) IsAdmin(_ context.Context, user metadata.UserID) (bool, error) {
	_, ok := a.admins[user]
	return ok, nil
}

// Gate wraps an Authorizer with the deny-by-default policy every tree
// entry point applies before touching any store.
type Gate struct {
	authorizer Authorizer
}

// NewGate creates a gate over the given authorizer.
func NewGate(authorizer Authorizer) *Gate {
	return &Gate{authorizer: authorizer}
}

// IsAdmin reports whether user holds the admin role.
func (g *Gate) IsAdmin(ctx context.Context, user metadata.UserID) (bool, error) {
	return g.authorizer.IsAdmin(ctx, user)
}

// Require allows the operation if user is an admin or a member of org.
// Denial is always an explicit ErrForbidden, never silently swallowed;
// a missing organization surfaces as ErrNotFound so callers can tell
// "no such org" apart from "not a member".
func (g *Gate) Require(ctx context.Context, user metadata.UserID, org metadata.OrgID) error {
	if user == "" {
		return metadata.NewError(metadata.ErrForbidden, "no acting user")
	}

	admin, err := g.authorizer.IsAdmin(ctx, user)
	if err != nil {
		return fmt.Errorf("admin check failed: %w", err)
	}
	if admin {
		return nil
	}

	member, err := g.authorizer.IsMember(ctx, org, user)
	if err != nil {
		return fmt.Errorf("membership check failed: %w", err)
	}
	if !member {
		return metadata.NewError(metadata.ErrForbidden,
			fmt.Sprintf("user %s is not a member of organization %s", user, org))
	}
	return nil
}
