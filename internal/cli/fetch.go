package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/render"
)

// NewSchemaCmd prints the pre-poll form rendered from the backend's schema.
func NewSchemaCmd(configPath, backend *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Fetch the poll schema once and print the rendered form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSchema(cmd.Context(), cmd.OutOrStdout(), *configPath, *backend, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decoded schema as JSON")
	return cmd
}

// NewAnalyticsCmd prints the presenter view rendered from the backend's analytics.
func NewAnalyticsCmd(configPath, backend *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Fetch analytics once and print the rendered presenter view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAnalytics(cmd.Context(), cmd.OutOrStdout(), *configPath, *backend)
		},
	}
}

func printSchema(ctx context.Context, out io.Writer, configPath, backend string, asJSON bool) error {
	cfg, err := loadConfig(configPath, backend)
	if err != nil {
		return err
	}
	schema, err := newPollClient(cfg, zap.NewNop(), nil).FetchSchema(orBackground(ctx))
	if err != nil {
		return fmt.Errorf("error loading questions: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	}
	return writeNode(out, render.RenderForm(schema, domain.VariantPre))
}

// printAnalytics writes whatever rendered; per-question failures are returned after.
func printAnalytics(ctx context.Context, out io.Writer, configPath, backend string) error {
	cfg, err := loadConfig(configPath, backend)
	if err != nil {
		return err
	}
	payload, err := newPollClient(cfg, zap.NewNop(), nil).FetchAnalytics(orBackground(ctx))
	if err != nil {
		return fmt.Errorf("error loading analytics: %w", err)
	}
	container := render.El("div", "id", "analytics-container")
	renderErr := render.RenderAnalytics(container, payload)
	if err := writeNode(out, container); err != nil {
		return err
	}
	return renderErr
}

func writeNode(out io.Writer, n *html.Node) error {
	if err := html.Render(out, n); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
