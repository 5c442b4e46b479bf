package seed

import (
	"context"
	"errors"
	"strings"

	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"go.uber.org/zap"
)

var ErrInvalidBootstrapOrg = errors.New("invalid_bootstrap_org")

// EnsureBootstrapAdmin creates the first admin of the bootstrap organization
// so a fresh install can log in. It does nothing unless both the admin email
// and password are configured, and an existing actor with that email is left
// untouched.
func EnsureBootstrapAdmin(ctx context.Context, actors actordomain.Service, cfg config.Config, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.BootstrapAdminEmail)
	if email == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}
	if cfg.BootstrapOrgID <= 0 {
		return ErrInvalidBootstrapOrg
	}

	name := strings.TrimSpace(cfg.BootstrapAdminName)
	if name == "" {
		name = "Fyxed Admin"
	}

	ctx = orgcontext.WithOrgID(ctx, cfg.BootstrapOrgID)
	actor, err := actors.Create(ctx, actordomain.CreateActorRequest{
		Name:     name,
		Email:    email,
		Role:     actordomain.RoleAdmin,
		Password: cfg.BootstrapAdminPassword,
	})
	switch {
	case errors.Is(err, actordomain.ErrEmailTaken):
		return nil
	case err != nil:
		return err
	}

	if log != nil {
		log.Info("bootstrap admin created",
			zap.Int64("org_id", cfg.BootstrapOrgID),
			zap.String("actor_id", actor.ID.String()),
		)
	}
	return nil
}
