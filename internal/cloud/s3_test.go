package cloud

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/goccy/go-json"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestArchiveReport(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	a := NewReportArchiveWith(fake, "bucket")
	entry := domain.HistoryEntry{ID: "0192", Date: "2026-10-14 (Daily Report)"}

	if err := a.ArchiveReport(context.Background(), "2026-10-14", entry); err != nil {
		t.Fatal(err)
	}
	data, ok := fake.objects["reports/2026-10-14/0192.json"]
	if !ok {
		t.Fatalf("objects = %v", fake.objects)
	}
	var got domain.HistoryEntry
	if err := json.Unmarshal(data, &got); err != nil || got.Date != entry.Date {
		t.Errorf("stored %s (%v)", data, err)
	}

	a.ArchiveReport(context.Background(), "2026-10-14", domain.HistoryEntry{ID: "0193"})
	dates, err := a.ListArchivedDates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 1 || dates[0] != "2026-10-14" {
		t.Errorf("dates = %v", dates)
	}
}
