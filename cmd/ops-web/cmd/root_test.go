package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-web/ops-web-backend/internal/analytics"
)

func TestRootHasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "phases")
	assert.Contains(t, names, "analytics")
}

func TestPhasesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"phases"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 19)
	assert.Contains(t, lines[1], "jobBoardIntro")
	assert.Contains(t, lines[1], "continue")
	assert.Contains(t, lines[3], "fabMenu")
	assert.Contains(t, lines[3], "tapNewProject")
	assert.Contains(t, lines[12], "jobBoardProjectCreated")
	assert.Contains(t, lines[12], "2.5s")
	assert.Contains(t, lines[18], "completed")
}

func TestRunExportCSV(t *testing.T) {
	repo := analytics.NewMemoryRepository()
	now := time.Now()
	require.NoError(t, repo.SaveStep(context.Background(), &analytics.StepRecord{
		SessionID: "s-1", Variant: "b", Phase: "fabTap", DurationMs: 1200, RecordedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, repo.SaveStep(context.Background(), &analytics.StepRecord{
		SessionID: "s-0", Variant: "b", Phase: "fabTap", DurationMs: 900, RecordedAt: now.Add(-48 * time.Hour),
	}))

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	require.NoError(t, runExport(cmd, repo, analytics.FormatCSV, "-", 24*time.Hour))

	assert.Contains(t, out.String(), "s-1")
	assert.NotContains(t, out.String(), "s-0")
	assert.Equal(t, "Exported 1 records\n", errOut.String())
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	rootCmd.SetArgs([]string{"analytics", "export", "--format", "pdf"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		exportFormat = "csv"
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

type fakeArchive struct {
	key      string
	body     string
	metadata map[string]string
}

func (f *fakeArchive) Upload(_ context.Context, key string, body io.Reader, _ string, metadata map[string]string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key, f.body, f.metadata = key, string(b), metadata
	return "s3://bucket/" + key, nil
}

func (f *fakeArchive) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?sig=1", nil
}

func TestRunUploadPresigns(t *testing.T) {
	repo := analytics.NewMemoryRepository()
	require.NoError(t, repo.SaveStep(context.Background(), &analytics.StepRecord{
		SessionID: "s-1", Variant: "b", Phase: "fabTap", DurationMs: 1200, RecordedAt: time.Now(),
	}))

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	archive := &fakeArchive{}
	require.NoError(t, runUpload(cmd, repo, archive, analytics.FormatCSV, "manual.csv", 0, time.Hour))

	assert.Equal(t, "manual.csv", archive.key)
	assert.Contains(t, archive.body, "s-1")
	assert.Equal(t, "1", archive.metadata["records"])
	assert.Equal(t, "https://bucket.example/manual.csv?sig=1\n", out.String())
	assert.Contains(t, errOut.String(), "Uploaded 1 records to s3://bucket/manual.csv")
}
