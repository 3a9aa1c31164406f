package daemon

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/web/session"
)

const bootstrapActor = "system"

// seed grants super_admin to bootstrap users without any assignment and registers the static
// api tokens.
func seed(cfg *config.Config, store *acl.Store, sessions *session.Manager) error {
	for _, userID := range cfg.ACL.Bootstrap {
		if len(store.UserAssignments(userID)) > 0 {
			continue
		}

		if _, _, err := store.AssignRole(userID, acl.RoleSuperAdmin, bootstrapActor); err != nil {
			return fmt.Errorf("failed to bootstrap %s: %w", userID, err)
		}

		log.Info().Str("user_id", userID).Msg("bootstrap user granted super_admin")
	}

	now := time.Now()

	for token, userID := range cfg.API.Tokens {
		if err := sessions.Register(token, session.Data{UserID: userID, CreatedAt: now}); err != nil {
			return fmt.Errorf("failed to register api token for %s: %w", userID, err)
		}
	}

	return nil
}
