package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loreworks/loretex/internal/config"
	"github.com/loreworks/loretex/internal/service"
)

// RetrieveCmd returns the retrieve command
func RetrieveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Retrieve knowledge relevant to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRetrieve,
	}

	cmd.Flags().IntP("count", "n", 0, "Maximum number of results (defaults to the configured count)")
	cmd.Flags().String("owner", "", "Restrict results to one owner tag")
	cmd.Flags().Bool("json", false, "Output results as JSON")

	return cmd
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	stack, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	if stack.embedder == nil {
		return fmt.Errorf("LORETEX_OPENAI_API_KEY is required to retrieve")
	}

	svc := service.NewRetrievalService(stack.embedder, stack.store, service.RetrievalConfig{
		Count:          cfg.RetrieveCount,
		MatchThreshold: float32(cfg.MatchThreshold),
	})

	count, _ := cmd.Flags().GetInt("count")
	owner, _ := cmd.Flags().GetString("owner")
	asJSON, _ := cmd.Flags().GetBool("json")

	query := strings.Join(args, " ")
	items := svc.Retrieve(ctx, query, service.RetrieveOptions{
		TopK:    count,
		OwnerID: owner,
	})

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, item := range items {
		fmt.Printf("%d. %s\n", i+1, item.ID)
		if item.Content.Title != "" {
			fmt.Printf("   title: %s\n", item.Content.Title)
		}
		text := item.Content.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("   %s\n", text)
	}

	return nil
}
