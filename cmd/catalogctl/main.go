// Command catalogctl maintains the object catalog: seeding objects from an
// asset tree, registering animation scripts and printing the scene graph
// schema given to the generative model.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/catalog"
	"github.com/text3d/hub/internal/config"
	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/scene"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Maintain the 3D object catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(cfg), newSeedAnimationsCmd(cfg), newSchemaCmd())
	return root
}

type seedFlags struct {
	dir       string
	bucket    string
	prefix    string
	urlPrefix string
	category  string
	replace   bool
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert one catalog entry per asset folder",
		Long: `Walks an asset tree where every top-level folder holds one object's
.obj, .mtl and texture files, and inserts a catalog entry per folder.
Use --dir for a local tree or --bucket for a MinIO/S3 bucket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.dir, "dir", "", "local asset directory")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "asset bucket name (uses HUB_MINIO_* settings)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "key prefix inside the bucket")
	cmd.Flags().StringVar(&f.urlPrefix, "url-prefix", "/static/assets", "URL prefix written into asset paths")
	cmd.Flags().StringVar(&f.category, "category", "planet", "category for new entries")
	cmd.Flags().BoolVar(&f.replace, "replace", false, "remove existing entries first")
	return cmd
}

func runSeed(ctx context.Context, out io.Writer, cfg *config.Config, f seedFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if (f.dir == "") == (f.bucket == "") {
		return fmt.Errorf("exactly one of --dir or --bucket is required")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var source catalog.AssetSource
	if f.dir != "" {
		source = catalog.DirSource{Root: f.dir}
	} else {
		client, err := newMinioClient(cfg)
		if err != nil {
			return err
		}
		source = catalog.BucketSource{Client: client, Bucket: f.bucket, Prefix: f.prefix}
	}

	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	seeder := &catalog.Seeder{
		Store:     catalog.NewStore(database, logger),
		Source:    source,
		URLPrefix: f.urlPrefix,
		Category:  f.category,
		Replace:   f.replace,
		Logger:    logger,
	}
	inserted, err := seeder.Seed(ctx)
	if err != nil {
		return err
	}
	invalidateCache(ctx, cfg, logger)

	fmt.Fprintf(out, "inserted %d catalog entries\n", inserted)
	return nil
}

type seedAnimationsFlags struct {
	dir       string
	urlPrefix string
}

func newSeedAnimationsCmd(cfg *config.Config) *cobra.Command {
	var f seedAnimationsFlags
	cmd := &cobra.Command{
		Use:   "seed-animations",
		Short: "Register one animation per .js script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedAnimations(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory holding animation scripts")
	cmd.Flags().StringVar(&f.urlPrefix, "url-prefix", "/scenarios", "URL prefix written into script paths")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runSeedAnimations(ctx context.Context, out io.Writer, cfg *config.Config, f seedAnimationsFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	seeder := &catalog.AnimationSeeder{
		Store:     catalog.NewStore(database, logger),
		Dir:       f.dir,
		URLPrefix: f.urlPrefix,
		Logger:    logger,
	}
	inserted, skipped, err := seeder.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "inserted %d animations, skipped %d already registered\n", inserted, skipped)
	return nil
}

func newMinioClient(cfg *config.Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.MinioEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("HUB_MINIO_ENDPOINT is required with --bucket")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return client, nil
}

// invalidateCache drops cached lookups so a running hub sees the new entries.
func invalidateCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if cfg.RedisAddr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer rdb.Close()
	if err := catalog.NewCached(nil, rdb, cfg.CacheTTL, logger).Invalidate(ctx); err != nil {
		logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the scene graph JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), scene.CandidateSchema())
			return err
		},
	}
}
