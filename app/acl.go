package app

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/daemon"
	"github.com/marketplace-tools/permd/internal/logger"
	"github.com/marketplace-tools/permd/internal/web/session"
)

func init() { //nolint: gochecknoinits
	checkCmd.Flags().StringVar(&resourceID, "resource", "", "resource id recorded with the check")

	rootCmd.AddCommand(rolesCmd, inheritedCmd, checkCmd, tokenCmd)
}

var (
	resourceID string

	rolesCmd = &cobra.Command{
		Use:   "roles",
		Short: "List the role catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(func(store *acl.Store) error {
				return printRoles(cmd.OutOrStdout(), store.ListRoles())
			})
		},
	}

	inheritedCmd = &cobra.Command{
		Use:   "inherited <role>",
		Short: "List the roles inheriting from a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *acl.Store) error {
				roles, err := store.InheritedRoles(acl.RoleID(args[0]))
				if err != nil {
					return err
				}

				for _, r := range roles {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), r); err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check <user> <permission>",
		Short: "Check and record whether a user holds a permission",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *acl.Store) error {
				record, err := store.CheckPermission(args[0], acl.Permission(args[1]), resourceID)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", record.UserID, record.Permission, record.Result)

				return err
			})
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token <user>",
		Short: "Issue a bearer token for a user",
		Long: `Issue a bearer token for a user. With the db session storage the token is stored
and usable right away. With the memory storage add it to [API.Tokens] instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Webserver.SessionStorage != config.SessionStorageDB {
				token, err := session.GenerateToken()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%q = %q\n", token, args[0])

				return err
			}

			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}

			defer d.Close()

			token, err := d.Sessions().Issue(args[0], time.Now())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)

			return err
		},
	}
)

// withStore opens the configured database and runs fn on the restored store.
func withStore(fn func(store *acl.Store) error) error {
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	store, gdb, err := daemon.OpenStore(&cfg, nil)
	if err != nil {
		return err
	}

	defer closeDB(gdb)

	return fn(store)
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

func printRoles(w io.Writer, roles []acl.Role) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd

	if _, err := fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tSYSTEM\tPERMISSIONS"); err != nil {
		return err
	}

	for _, r := range roles {
		perms := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, string(p))
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
			r.ID, r.Name, r.Level, r.IsSystem, strings.Join(perms, ",")); err != nil {
			return err
		}
	}

	return tw.Flush()
}
