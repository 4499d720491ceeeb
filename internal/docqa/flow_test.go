package docqa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylens/equitylens/internal/api"
	"github.com/equitylens/equitylens/internal/research"
)

type fakeQuerier struct {
	answer   *research.Answer
	err      error
	calls    int
	gotFiles []research.File
	gotQuery string
}

func (q *fakeQuerier) PDFQuery(_ context.Context, files []research.File, query string) (*research.Answer, error) {
	q.calls++
	q.gotFiles = files
	q.gotQuery = query
	if q.err != nil {
		return nil, q.err
	}
	return q.answer, nil
}

// writePDF creates a minimal valid PDF file of size bytes.
func writePDF(t *testing.T, dir, name string, size int) string {
	t.Helper()
	header := []byte("%PDF-1.4\n")
	if size < len(header) {
		size = len(header)
	}
	content := make([]byte, size)
	copy(content, header)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func TestStageValidPDFs(t *testing.T) {
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", 1024)
	b := writePDF(t, dir, "b.pdf", 2048)

	flow := NewFlow(&fakeQuerier{})

	require.True(t, flow.Stage(a, b), "Err() = %q", flow.Err())
	files := flow.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Name)
	assert.Equal(t, "b.pdf", files[1].Name)
	assert.Empty(t, flow.Err())
}

func TestStageRejectsBatchOverFileCap(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, MaxFiles+1)
	for i := range paths {
		paths[i] = writePDF(t, dir, fmt.Sprintf("f%d.pdf", i), 128)
	}

	flow := NewFlow(&fakeQuerier{})

	assert.False(t, flow.Stage(paths...))
	assert.Empty(t, flow.Files(), "a rejected batch stages zero files")
	assert.Equal(t, "You can upload a maximum of 5 files at once.", flow.Err())
}

func TestStageCountCapIncludesAlreadyStaged(t *testing.T) {
	dir := t.TempDir()
	flow := NewFlow(&fakeQuerier{})

	var first []string
	for i := 0; i < 4; i++ {
		first = append(first, writePDF(t, dir, fmt.Sprintf("p%d.pdf", i), 64))
	}
	require.True(t, flow.Stage(first...))

	second := []string{
		writePDF(t, dir, "q1.pdf", 64),
		writePDF(t, dir, "q2.pdf", 64),
	}
	assert.False(t, flow.Stage(second...), "4 staged + 2 incoming exceeds the cap")
	assert.Len(t, flow.Files(), 4, "prior staging is untouched")
}

func TestStageRejectsOversizeFile(t *testing.T) {
	dir := t.TempDir()

	// A single 11 MB PDF: the whole batch is rejected.
	big := filepath.Join(dir, "big.pdf")
	f, err := os.Create(big)
	require.NoError(t, err)
	_, err = f.WriteString("%PDF-1.4\n")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(11<<20))
	require.NoError(t, f.Close())

	flow := NewFlow(&fakeQuerier{})

	assert.False(t, flow.Stage(big))
	assert.Empty(t, flow.Files())
	assert.Equal(t, "Some files are invalid. Please upload PDF files under 10MB.", flow.Err())
}

func TestStageRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	good := writePDF(t, dir, "good.pdf", 256)
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0600))

	flow := NewFlow(&fakeQuerier{})

	assert.False(t, flow.Stage(good, bad), "one invalid file rejects the whole batch")
	assert.Empty(t, flow.Files())
	assert.NotEmpty(t, flow.Err())
}

func TestStageRejectsMissingFile(t *testing.T) {
	flow := NewFlow(&fakeQuerier{})
	assert.False(t, flow.Stage(filepath.Join(t.TempDir(), "absent.pdf")))
	assert.Empty(t, flow.Files())
}

func TestRemoveStagedFile(t *testing.T) {
	dir := t.TempDir()
	flow := NewFlow(&fakeQuerier{})
	require.True(t, flow.Stage(
		writePDF(t, dir, "a.pdf", 64),
		writePDF(t, dir, "b.pdf", 64),
		writePDF(t, dir, "c.pdf", 64),
	))

	flow.Remove(1)

	files := flow.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Name)
	assert.Equal(t, "c.pdf", files[1].Name)

	flow.Remove(10) // out of range is ignored
	assert.Len(t, flow.Files(), 2)
}

func TestSubmitRequiresQuestionAndFiles(t *testing.T) {
	q := &fakeQuerier{}
	flow := NewFlow(q)

	assert.False(t, flow.Submit(context.Background(), "what is revenue?"), "no files staged")
	assert.Equal(t, "Please upload at least one PDF file and enter a query.", flow.Err())

	require.True(t, flow.Stage(writePDF(t, t.TempDir(), "a.pdf", 64)))
	assert.False(t, flow.Submit(context.Background(), "   "), "blank question")

	assert.Zero(t, q.calls, "local validation short-circuits before any network call")
}

func TestSubmitSuccess(t *testing.T) {
	q := &fakeQuerier{answer: &research.Answer{Answer: "Revenue grew 12%."}}
	flow := NewFlow(q)
	require.True(t, flow.Stage(writePDF(t, t.TempDir(), "report.pdf", 512)))

	require.True(t, flow.Submit(context.Background(), "summarize revenue"))

	assert.Equal(t, "Revenue grew 12%.", flow.Answer())
	assert.Empty(t, flow.Err())
	assert.False(t, flow.Loading())
	require.Len(t, q.gotFiles, 1)
	assert.Equal(t, "report.pdf", q.gotFiles[0].Name)
	assert.Equal(t, "summarize revenue", q.gotQuery)
}

func TestSubmitServerDetailSurfaces(t *testing.T) {
	q := &fakeQuerier{err: &api.Error{StatusCode: 422, Detail: "Document is encrypted"}}
	flow := NewFlow(q)
	require.True(t, flow.Stage(writePDF(t, t.TempDir(), "locked.pdf", 128)))

	assert.False(t, flow.Submit(context.Background(), "what does it say?"))
	assert.Equal(t, "Document is encrypted", flow.Err())
}

func TestSubmitTransportFallback(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection reset")}
	flow := NewFlow(q)
	require.True(t, flow.Stage(writePDF(t, t.TempDir(), "a.pdf", 128)))

	assert.False(t, flow.Submit(context.Background(), "question"))
	assert.Equal(t, "An error occurred. Please try again.", flow.Err())
	assert.False(t, flow.Loading())
}
