package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ops-web/ops-web-backend/internal/analytics"
	"ops-web/ops-web-backend/internal/server"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/pkg/storage"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Work with recorded tutorial step analytics",
}

var (
	exportFormat string
	exportOut    string
	exportSince  time.Duration
	exportBucket string
	exportKey    string
	exportTTL    time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded step durations as CSV or XLSX",
	Long: `Export step durations recorded in the database. --since limits the export to recent records.
With --s3-bucket the file is uploaded instead of written locally, and --presign prints a download link.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := analytics.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.UseDatabase() {
			return errors.New("analytics export needs a database: set database.host")
		}

		logger, err := newLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := server.OpenDatabase(cfg.Database, logger)
		if err != nil {
			return err
		}
		repo, err := analytics.NewGormRepository(db)
		if err != nil {
			return err
		}
		if exportBucket == "" {
			return runExport(cmd, repo, format, exportOut, exportSince)
		}

		awsCfg, err := sms.LoadAWSConfig(cmd.Context(), sms.AWSConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			return err
		}
		archive := storage.NewS3Archive(awsCfg, exportBucket, cfg.Analytics.ArchivePrefix)
		key := exportKey
		if key == "" {
			key = analytics.ArchiveKey(time.Now(), format)
		}
		return runUpload(cmd, repo, archive, format, key, exportSince, exportTTL)
	},
}

func listSince(ctx context.Context, repo analytics.Repository, since time.Duration) ([]analytics.StepRecord, error) {
	var from time.Time
	if since > 0 {
		from = time.Now().Add(-since)
	}
	return repo.ListSteps(ctx, from)
}

func runExport(cmd *cobra.Command, repo analytics.Repository, format analytics.ExportFormat, out string, since time.Duration) error {
	records, err := listSince(cmd.Context(), repo, since)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if err := analytics.Export(w, format, records); err != nil {
		return err
	}
	cmd.PrintErrf("Exported %d records\n", len(records))
	return nil
}

func runUpload(cmd *cobra.Command, repo analytics.Repository, archive storage.Archive, format analytics.ExportFormat, key string, since, presign time.Duration) error {
	records, err := listSince(cmd.Context(), repo, since)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := analytics.Export(&buf, format, records); err != nil {
		return err
	}
	location, err := archive.Upload(cmd.Context(), key, &buf, format.ContentType(), map[string]string{
		"records": fmt.Sprint(len(records)),
	})
	if err != nil {
		return err
	}
	cmd.PrintErrf("Uploaded %d records to %s\n", len(records), location)

	if presign > 0 {
		url, err := archive.GetPresignedURL(cmd.Context(), key, presign)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "only export records newer than this, e.g. 168h")
	exportCmd.Flags().StringVar(&exportBucket, "s3-bucket", "", "upload the export to this S3 bucket")
	exportCmd.Flags().StringVar(&exportKey, "s3-key", "", "object key under the archive prefix (default tutorial-steps/<today>.<format>)")
	exportCmd.Flags().DurationVar(&exportTTL, "presign", 0, "print a presigned download URL valid for this long")

	analyticsCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(analyticsCmd)
}
