package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loreworks/loretex/internal/config"
	"github.com/loreworks/loretex/internal/domain"
	"github.com/loreworks/loretex/internal/service"
	"github.com/loreworks/loretex/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest documents into the knowledge store",
		Long: `Ingest documents from files, stdin or an S3-compatible bucket.

Pass one or more file paths, "-" to read a single document from stdin,
or --s3-prefix to ingest every object under a prefix of the configured
source bucket.`,
		RunE: runIngest,
	}

	cmd.Flags().String("id", "", "Document ID (defaults to the file name or object key)")
	cmd.Flags().String("title", "", "Document title")
	cmd.Flags().String("source", "", "Document source label")
	cmd.Flags().String("category", "", "Document category")
	cmd.Flags().String("s3-prefix", "", "Ingest all objects under this prefix of the source bucket")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("LORETEX_OPENAI_API_KEY is required to ingest")
	}

	svc := service.NewIngestService(stack.embedder, stack.store, service.IngestConfig{
		OwnerID:      cfg.OwnerID,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})

	idFlag, _ := cmd.Flags().GetString("id")
	title, _ := cmd.Flags().GetString("title")
	source, _ := cmd.Flags().GetString("source")
	category, _ := cmd.Flags().GetString("category")
	s3Prefix, _ := cmd.Flags().GetString("s3-prefix")

	meta := domain.Content{Title: title, Source: source, Category: category}

	if s3Prefix != "" {
		return ingestFromS3(ctx, cfg, svc, s3Prefix, meta)
	}

	if len(args) == 0 {
		return fmt.Errorf("no input: pass file paths, \"-\" for stdin, or --s3-prefix")
	}

	if idFlag != "" && len(args) > 1 {
		return fmt.Errorf("--id cannot be combined with multiple inputs")
	}

	for _, arg := range args {
		var (
			text []byte
			id   string
		)
		if arg == "-" {
			text, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			id = "stdin"
		} else {
			text, err = os.ReadFile(arg)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", arg, err)
			}
			id = filepath.Base(arg)
		}
		if idFlag != "" {
			id = idFlag
		}

		item := domain.KnowledgeItem{ID: id, Content: meta}
		item.Content.Text = string(text)
		if err := svc.Ingest(ctx, item); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", id, err)
		}
		log.Printf("ingested %s", id)
	}

	return nil
}

func ingestFromS3(ctx context.Context, cfg *config.Config, svc *service.IngestService, prefix string, meta domain.Content) error {
	if !cfg.HasS3() {
		return fmt.Errorf("S3 source not configured: LORETEX_S3_ENDPOINT, LORETEX_S3_ACCESS_KEY_ID and LORETEX_S3_SECRET_ACCESS_KEY are required")
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return err
	}

	keys, err := client.ListKeys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("no objects under prefix %q in bucket %q", prefix, cfg.S3Bucket)
	}

	for _, key := range keys {
		body, err := client.FetchObject(ctx, key)
		if err != nil {
			return err
		}

		item := domain.KnowledgeItem{ID: key, Content: meta}
		item.Content.Text = string(body)
		if item.Content.Source == "" {
			item.Content.Source = "s3://" + cfg.S3Bucket + "/" + key
		}
		if err := svc.Ingest(ctx, item); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", key, err)
		}
		log.Printf("ingested %s", key)
	}

	log.Printf("ingested %d objects from s3://%s/%s", len(keys), cfg.S3Bucket, prefix)
	return nil
}
