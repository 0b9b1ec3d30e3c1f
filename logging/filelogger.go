package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/hwlab/quicktest/types"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories.
	RunDirectoryPrefix = "testrun-"

	AllLogFilename     = "all.log"
	FailedLogFilename  = "failed.log"
	SummaryLogFilename = "summary.log"
)

// FileLogger writes the verdict lines of one run to files: every line goes to
// all.log, non-PASS lines additionally to failed.log, and the final scope
// summaries to summary.log. Collaborator-supplied messages may carry ANSI
// escapes; they are stripped before writing.
type FileLogger struct {
	baseDir string
	runDir  string
	runID   string

	mu     sync.Mutex // files may be read by the embedder mid-run
	all    *os.File
	failed *os.File
}

// NewFileLogger creates the run directory and its log files.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	all, err := os.Create(filepath.Join(runDir, AllLogFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", AllLogFilename, err)
	}
	failed, err := os.Create(filepath.Join(runDir, FailedLogFilename))
	if err != nil {
		all.Close()
		return nil, fmt.Errorf("failed to create %s: %w", FailedLogFilename, err)
	}

	return &FileLogger{
		baseDir: baseDir,
		runDir:  runDir,
		runID:   runID,
		all:     all,
		failed:  failed,
	}, nil
}

// Result writes one verdict line. Implements runner.ResultSink.
func (l *FileLogger) Result(line string, verdict types.Verdict) {
	clean := stripansi.Strip(line)

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.all, clean)
	if verdict != types.VerdictPass && verdict != types.VerdictNone {
		fmt.Fprintln(l.failed, clean)
	}
}

// WriteSummary writes the final scope summary block.
func (l *FileLogger) WriteSummary(lines []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(stripansi.Strip(line))
		b.WriteString("\n")
	}
	path := filepath.Join(l.runDir, SummaryLogFilename)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// RunDir returns the directory holding this run's logs.
func (l *FileLogger) RunDir() string {
	return l.runDir
}

// RunID returns the run identifier this logger was created for.
func (l *FileLogger) RunID() string {
	return l.runID
}

// Close flushes and closes the log files.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []string
	if err := l.all.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := l.failed.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close log files: %s", strings.Join(errs, "; "))
	}
	return nil
}
