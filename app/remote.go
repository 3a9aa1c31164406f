package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/client"
)

func init() { //nolint: gochecknoinits
	remoteCmd.PersistentFlags().StringVar(&remoteURL, "url", "", "base url of the permd service (default API.Remote)")
	remoteCmd.PersistentFlags().StringVar(&remoteToken, "token", "", "bearer token (default API.Token)")

	remoteAssignCmd.Flags().DurationVar(&assignFor, "for", 0, "expire the assignment after this duration")

	remoteRevokeCmd.Flags().StringVar(&revokeReason, "reason", "", "reason recorded with the revocation")

	remoteCheckCmd.Flags().StringVar(&resourceID, "resource", "", "resource id recorded with the check")

	remoteAuditCmd.Flags().StringVar(&auditQuery.Filter.Actor, "actor", "", "filter on the acting user")
	remoteAuditCmd.Flags().StringVar(&auditQuery.Filter.TargetUserID, "target", "", "filter on the affected user")
	remoteAuditCmd.Flags().StringVar(&auditAction, "action", "", "filter on the action")
	remoteAuditCmd.Flags().IntVar(&auditQuery.Limit, "limit", 50, "page size") //nolint:mnd
	remoteAuditCmd.Flags().IntVar(&auditQuery.Offset, "offset", 0, "entries to skip")

	remoteCmd.AddCommand(remoteAssignCmd, remoteRevokeCmd, remoteCheckCmd, remoteAuditCmd)
	rootCmd.AddCommand(remoteCmd)
}

var (
	remoteURL    string
	remoteToken  string
	assignFor    time.Duration
	revokeReason string
	auditAction  string
	auditQuery   client.AuditQuery

	remoteCmd = &cobra.Command{
		Use:   "remote",
		Short: "Call a running permd service",
	}

	remoteAssignCmd = &cobra.Command{
		Use:   "assign <user> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newRemoteClient()
			if err != nil {
				return err
			}

			var expiresAt *time.Time
			if assignFor > 0 {
				t := time.Now().Add(assignFor)
				expiresAt = &t
			}

			resp, err := c.AssignRole(cmd.Context(), args[0], acl.RoleID(args[1]), "", expiresAt)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	remoteRevokeCmd = &cobra.Command{
		Use:   "revoke <user> <assignment-id>",
		Short: "Revoke a role assignment",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newRemoteClient()
			if err != nil {
				return err
			}

			resp, err := c.RevokeRole(cmd.Context(), args[0], args[1], "", revokeReason)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	remoteCheckCmd = &cobra.Command{
		Use:   "check <user> <permission>",
		Short: "Check whether a user holds a permission",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newRemoteClient()
			if err != nil {
				return err
			}

			record, err := c.CheckPermission(cmd.Context(), args[0], acl.Permission(args[1]), resourceID)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), record)
		},
	}

	remoteAuditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Query the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newRemoteClient()
			if err != nil {
				return err
			}

			auditQuery.Filter.Action = acl.AuditAction(auditAction)

			resp, err := c.AuditLogs(cmd.Context(), auditQuery)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
)

func newRemoteClient() (*client.Client, error) {
	url := cfg.API.Remote
	if remoteURL != "" {
		url = remoteURL
	}

	token := cfg.API.Token
	if remoteToken != "" {
		token = remoteToken
	}

	return client.New(url, token, cfg.API.Timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	return nil
}

