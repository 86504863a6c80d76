package cloud

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

// S3API is the part of the S3 client the archive uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// ReportArchive keeps a copy of every daily report in an S3 bucket under
// reports/{date}/{id}.json.
type ReportArchive struct {
	svc    S3API
	bucket string
}

// NewReportArchive loads the default AWS configuration for region.
func NewReportArchive(ctx context.Context, region, bucket string) (*ReportArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &ReportArchive{svc: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func NewReportArchiveWith(svc S3API, bucket string) *ReportArchive {
	return &ReportArchive{svc: svc, bucket: bucket}
}

func ReportKey(date, id string) string {
	return "reports/" + date + "/" + id + ".json"
}

func (a *ReportArchive) ArchiveReport(ctx context.Context, date string, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = a.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ReportKey(date, string(entry.ID))),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-at": time.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload report to S3: %w", err)
	}
	return nil
}

// ListArchivedDates returns the distinct report dates stored in the bucket.
func (a *ReportArchive) ListArchivedDates(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(a.svc, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String("reports/"),
	})

	seen := map[string]bool{}
	var dates []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			parts := strings.Split(aws.ToString(obj.Key), "/")
			if len(parts) != 3 || seen[parts[1]] {
				continue
			}
			seen[parts[1]] = true
			dates = append(dates, parts[1])
		}
	}
	return dates, nil
}
