package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/helix/epe-server/internal/config"
	"github.com/helix/epe-server/internal/logger"
)

// NewBlobStore builds a blob store using mode local|s3|auto. Local mode
// returns a nil Store and reports are streamed instead of uploaded.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, log *logger.Logger) (Store, string, error) {
	log = log.With("component", "blob")

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		log.Info("blob mode selected", "mode", appcfg.BlobModeLocal, "reason", "forced")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			if level == "WARN" {
				log.Warn("s3 diagnostics", "code", code, "detail", msg, "summary", cfg.S3.DiagnosticsSummary())
			} else {
				log.Info("s3 diagnostics", "code", code, "detail", msg)
			}
			log.Info("blob mode selected", "mode", appcfg.BlobModeLocal, "reason", "auto, S3 not configured")
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newS3(ctx, cfg.S3)
		if err != nil {
			log.Warn("s3 init failed, fallback to local", "error", err)
			return nil, appcfg.BlobModeLocal, nil
		}

		log.Info("blob mode selected", "mode", appcfg.BlobModeS3, "reason", "auto, configured", "summary", cfg.S3.DiagnosticsSummary())
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			log.Error("s3 config incomplete", "code", "s3_config_incomplete", "missing", missing, "summary", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3(ctx, cfg.S3)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		log.Info("blob mode selected", "mode", appcfg.BlobModeS3, "reason", "forced", "summary", cfg.S3.DiagnosticsSummary())
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func newS3(ctx context.Context, c appcfg.S3Config) (*S3Store, error) {
	return NewS3Store(ctx, S3Options{
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		Bucket:          c.Bucket,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		PublicBaseURL:   c.PublicBaseURL,
		PreferPublicURL: c.PreferPublicURL,
	})
}
