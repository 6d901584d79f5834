package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/todoctl/internal/config"
	"github.com/brizzai/todoctl/internal/credential"
	"github.com/brizzai/todoctl/internal/logger"
	"github.com/brizzai/todoctl/internal/requester"
	"github.com/brizzai/todoctl/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// runWithSession starts the application graph, hands the coordinator to fn
// and stops the graph once fn returns.
func runWithSession(cmd *cobra.Command, fn func(ctx context.Context, c *session.Coordinator) error) error {
	var coordinator *session.Coordinator
	app := fx.New(
		config.Module(cmd.Flags()),
		logger.Module,
		credential.Module,
		session.Module,
		fx.Populate(&coordinator),
		fx.NopLogger,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Warn("Failed to stop application", zap.Error(err))
		}
	}()

	noSpinner, _ := cmd.Flags().GetBool("no-spinner")
	if !noSpinner {
		sub := coordinator.IsLoading().Subscribe(newLoadingIndicator().update)
		defer coordinator.IsLoading().Unsubscribe(sub)
	}

	return fn(ctx, coordinator)
}

// loadingIndicator shows a spinner while the session is loading
type loadingIndicator struct {
	spinner *pterm.SpinnerPrinter
}

func newLoadingIndicator() *loadingIndicator {
	return &loadingIndicator{}
}

func (l *loadingIndicator) update(loading bool) {
	if loading && l.spinner == nil {
		spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Talking to the server...")
		if err != nil {
			logger.Debug("Failed to start spinner", zap.Error(err))
			return
		}
		l.spinner = spinner
		return
	}
	if !loading && l.spinner != nil {
		_ = l.spinner.Stop()
		l.spinner = nil
	}
}

// printError prints err and, for API failures, the per-field details
func printError(err error) {
	var netErr *requester.NetworkError
	if !errors.As(err, &netErr) {
		pterm.Error.Println(err)
		return
	}

	pterm.Error.Println(netErr.Message)
	switch details := netErr.Details.(type) {
	case map[string]any:
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pterm.Println(pterm.Red(k) + ": " + formatDetail(details[k]))
		}
	case nil:
		if netErr.Err != nil {
			pterm.Println(netErr.Err.Error())
		}
	default:
		pterm.Println(formatDetail(details))
	}

	if requester.IsAuthExpired(err) {
		pterm.Warning.Println("Your session has expired, please log in again")
	}
}

func formatDetail(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
