package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/helix/epe-server/internal/blob"
)

// Service renders plan reports and, when an object store is configured,
// uploads them and hands out a link instead of the bytes.
type Service struct {
	generator  *Generator
	blobStore  blob.Store // nil means local mode
	presignTTL time.Duration
}

func NewService(blobStore blob.Store, presignTTL time.Duration) *Service {
	return &Service{
		generator:  NewGenerator(),
		blobStore:  blobStore,
		presignTTL: presignTTL,
	}
}

// LocalMode reports whether reports are streamed rather than uploaded.
func (s *Service) LocalMode() bool {
	return s.blobStore == nil
}

// Publish renders rep. In S3 mode the object lands under
// plans/{id}/week.{format} and the result carries its URL.
func (s *Service) Publish(ctx context.Context, rep WeekReport, format string) (*Published, error) {
	if format == "" {
		format = FormatPDF
	}
	data, err := s.generator.Render(rep, format)
	if err != nil {
		return nil, err
	}

	out := &Published{
		ContentType: contentType(format),
		Filename:    fmt.Sprintf("plan-%s.%s", rep.StartDate, format),
	}
	if s.LocalMode() {
		out.Data = data
		return out, nil
	}

	key := ObjectKey(rep.PlanID.String(), format)
	if _, err := s.blobStore.PutObject(ctx, key, data, out.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}
	url, err := s.blobStore.URL(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to build report url: %w", err)
	}
	out.Key = key
	out.URL = url
	return out, nil
}

func ObjectKey(planID, format string) string {
	return fmt.Sprintf("plans/%s/week.%s", planID, format)
}
