// Package docqa implements the PDF document question-answering flow:
// stage up to five PDF files, ask one question, get one answer. There
// is no multi-stage machine here — a single submission round-trip.
package docqa

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equitylens/equitylens/internal/api"
	"github.com/equitylens/equitylens/internal/research"
)

const (
	// MaxFiles caps the number of staged documents.
	MaxFiles = 5
	// MaxFileSize caps each document at 10 MiB.
	MaxFileSize = 10 << 20
	// pdfMIME is the only accepted content type.
	pdfMIME = "application/pdf"
)

// genericErrMsg mirrors the conversation flow's fallback.
const genericErrMsg = "An error occurred. Please try again."

// Querier is the slice of the research client this flow needs.
type Querier interface {
	PDFQuery(ctx context.Context, files []research.File, query string) (*research.Answer, error)
}

// StagedFile is a validated document awaiting submission.
type StagedFile struct {
	Name string
	Size int64
	Data []byte
}

// Flow holds the staged files and the current answer/error state.
// Safe for concurrent use, though submission is serial by design.
type Flow struct {
	mu     sync.Mutex
	svc    Querier
	logger *zap.Logger

	files   []StagedFile
	answer  string
	errMsg  string
	loading bool
}

// Option customizes a Flow.
type Option func(*Flow)

// WithLogger sets the flow logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// NewFlow creates an empty document flow.
func NewFlow(svc Querier, opts ...Option) *Flow {
	f := &Flow{
		svc:    svc,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stage validates and adds a batch of files. A violation anywhere in
// the batch — file count, size, or content type — rejects the entire
// batch: zero files are added and Err() carries the message.
func (f *Flow) Stage(paths ...string) bool {
	if len(paths) == 0 {
		return true
	}

	f.mu.Lock()
	staged := len(f.files)
	f.mu.Unlock()

	if staged+len(paths) > MaxFiles {
		f.setErr(fmt.Sprintf("You can upload a maximum of %d files at once.", MaxFiles))
		return false
	}

	// Read and validate the batch concurrently, keeping input order.
	batch := make([]StagedFile, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			file, err := loadPDF(path)
			if err != nil {
				return err
			}
			batch[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		f.logger.Debug("batch rejected", zap.Error(err))
		f.setErr("Some files are invalid. Please upload PDF files under 10MB.")
		return false
	}

	f.mu.Lock()
	f.files = append(f.files, batch...)
	f.errMsg = ""
	f.mu.Unlock()
	return true
}

// loadPDF reads one file and checks its size and content type.
func loadPDF(path string) (StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StagedFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return StagedFile{}, fmt.Errorf("%s exceeds the %d byte limit", path, MaxFileSize)
	}

	data, err := os.ReadFile(path) // #nosec G304 - path chosen by the user running the CLI
	if err != nil {
		return StagedFile{}, fmt.Errorf("read %s: %w", path, err)
	}

	if !mimetype.Detect(data).Is(pdfMIME) {
		return StagedFile{}, fmt.Errorf("%s is not a PDF", path)
	}

	return StagedFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Data: data,
	}, nil
}

// Remove drops one staged file by index. Out-of-range indices are
// ignored.
func (f *Flow) Remove(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.files) {
		return
	}
	f.files = append(f.files[:index], f.files[index+1:]...)
}

// Submit sends the staged documents and the question. It requires a
// non-blank question and at least one file; local validation failures
// surface through Err() without any network call.
func (f *Flow) Submit(ctx context.Context, question string) bool {
	question = strings.TrimSpace(question)

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return false
	}
	if question == "" || len(f.files) == 0 {
		f.errMsg = "Please upload at least one PDF file and enter a query."
		f.mu.Unlock()
		return false
	}

	f.loading = true
	f.errMsg = ""
	files := make([]research.File, len(f.files))
	for i, sf := range f.files {
		files[i] = research.File{Name: sf.Name, Data: sf.Data}
	}
	f.mu.Unlock()

	answer, err := f.svc.PDFQuery(ctx, files, question)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	if err != nil {
		f.logger.Warn("pdf query failed", zap.Error(err))
		f.errMsg = api.Detail(err, genericErrMsg)
		return false
	}

	f.answer = answer.Answer
	return true
}

// Files returns the staged files in order.
func (f *Flow) Files() []StagedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StagedFile(nil), f.files...)
}

// Answer returns the latest successful answer.
func (f *Flow) Answer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answer
}

// Err returns the current user-facing error message, "" when none.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Loading reports whether a submission is outstanding.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Flow) setErr(msg string) {
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
}
