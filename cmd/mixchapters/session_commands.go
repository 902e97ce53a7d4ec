package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mixchapters/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the cached catalog session",
	}
	sessionCmd.AddCommand(newSessionStatusCommand(ctx))
	sessionCmd.AddCommand(newSessionLoginCommand(ctx))
	sessionCmd.AddCommand(newSessionClearCommand(ctx))
	return sessionCmd
}

func newSessionStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := session.NewStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			pairs := [][2]string{
				{"Catalog", cfg.Catalog.BaseURL},
				{"Store", cfg.Session.Store},
				{"Credentials", yesNo(cfg.HasCredentials())},
			}
			record, err := store.Load(cmd.Context())
			switch {
			case errors.Is(err, session.ErrNoRecord):
				pairs = append(pairs, [2]string{"Session", "none"})
			case err != nil:
				return fmt.Errorf("load session: %w", err)
			default:
				now := time.Now()
				pairs = append(pairs,
					[2]string{"Session", "cached"},
					[2]string{"Identity", record.Identity},
					[2]string{"Validated", record.Timestamp.Local().Format(time.DateTime)},
					[2]string{"Cookies", strconv.Itoa(len(record.Cookies))},
					[2]string{"Expired", yesNo(record.Expired(now))},
				)
				if expiry, ok := record.EarliestExpiry(); ok {
					pairs = append(pairs, [2]string{"Expires", expiry.Local().Format(time.DateTime)})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(pairs))
			return nil
		},
	}
}

func newSessionLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Discard the cached session and log in again",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.HasCredentials() {
				return errors.New("catalog email and password are not configured")
			}
			manager, err := ctx.sessionManager(cmd.Context())
			if err != nil {
				return err
			}
			if err := manager.Login(cmd.Context()); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			status := manager.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%d cookies)\n", status.Identity, status.Cookies)
			return nil
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.sessionManager(cmd.Context())
			if err != nil {
				return err
			}
			if err := manager.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	}
}
