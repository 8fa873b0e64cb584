/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"fleetevents/internal/bootstrap"
	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/permission"
	"fleetevents/internal/ports"
)

var (
	eventKind             string
	eventRequestFile      string
	eventRole             string
	eventSpecializationID uint64
	eventExpectedVersion  int64
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Create or reconcile safety events",
}

var eventCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event with its specialization and children",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()
		kind, err := authorizeEvent(ctx, app)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}

		req, err := loadRequest(eventRequestFile)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}
		in, err := req.createInput(kind)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}

		res, err := app.Events.Create(ctx, in)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}
		return writeJSON(cmd.OutOrStdout(), res)
	}),
}

var eventUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Reconcile the children of an existing specialization",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()
		kind, err := authorizeEvent(ctx, app)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}

		req, err := loadRequest(eventRequestFile)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}
		in, err := req.updateInput(kind, eventSpecializationID, eventExpectedVersion)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}

		res, err := app.Events.Update(ctx, in)
		if err != nil {
			return reportFailure(ctx, cmd.OutOrStdout(), err)
		}
		return writeJSON(cmd.OutOrStdout(), res)
	}),
}

func authorizeEvent(ctx context.Context, app *bootstrap.App) (event.Kind, error) {
	kind, err := event.ParseKind(eventKind)
	if err != nil {
		return "", errs.Validation("%v", err)
	}
	ok, err := app.Permissions.HasAccess(ctx, eventRole, permission.ModuleEvents, ports.AccessWrite)
	if err != nil {
		return "", errs.Wrap(err, "check permission")
	}
	if !ok {
		return "", errs.Forbidden("role %q has no write access to %s", eventRole, permission.ModuleEvents)
	}
	return kind, nil
}

// reportFailure prints the caller-facing description and returns err for the exit code.
func reportFailure(ctx context.Context, w io.Writer, err error) error {
	failure := errs.Describe(err)
	if failure.Kind == errs.KindUnexpected {
		logging.Error(ctx, "event command failed", slog.Any("err", errs.Loggable(err)))
	}
	if writeErr := writeJSON(w, failure); writeErr != nil {
		return errs.Wrap(writeErr, "write failure")
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventCreateCmd)
	eventCmd.AddCommand(eventUpdateCmd)

	eventCmd.PersistentFlags().StringVar(&eventKind, "kind", "", "Event kind: accident, incident, citation, ticket, dot_inspection, warning")
	eventCmd.PersistentFlags().StringVar(&eventRequestFile, "request", "", "JSON request file")
	eventCmd.PersistentFlags().StringVar(&eventRole, "role", "", "Role checked against the permissions table")
	_ = eventCmd.MarkPersistentFlagRequired("kind")
	_ = eventCmd.MarkPersistentFlagRequired("request")

	eventUpdateCmd.Flags().Uint64Var(&eventSpecializationID, "id", 0, "Specialization id")
	eventUpdateCmd.Flags().Int64Var(&eventExpectedVersion, "expected-version", 0, "Refuse the update unless the stored version matches")
	_ = eventUpdateCmd.MarkFlagRequired("id")
}
