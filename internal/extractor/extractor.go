package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FetchedFile is one file produced by an extractor run, plus the metadata
// the rest of the pipeline cares about.
type FetchedFile struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
	Sidecar     bool
	ModTime     time.Time
}

// Extractor fetches the media behind a URL into destDir. Implementations
// are black boxes to the rest of the system; they are selected by URL
// pattern through the Registry.
type Extractor interface {
	Name() string
	Match(url string) bool
	Fetch(ctx context.Context, url, destDir string) ([]FetchedFile, error)
}

// ErrNoFiles means the tool exited zero but no output file could be
// attributed to the run.
var ErrNoFiles = errors.New("no output files detected")

// ToolError is a failed tool invocation. The raw output is kept so the
// caller can persist a truncated diagnostic.
type ToolError struct {
	ExitCode int
	Stderr   string
	Stdout   string
	Timeout  bool
}

func (e *ToolError) Error() string {
	if e.Timeout {
		return "extractor timed out"
	}
	return fmt.Sprintf("extractor exited with code %d", e.ExitCode)
}

// Diagnostic returns stderr, falling back to stdout when stderr is empty.
func (e *ToolError) Diagnostic() string {
	if e.Timeout {
		return "download timed out"
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// IsSidecar reports whether name is a metadata sidecar written alongside
// the real download (gallery-dl --write-metadata emits .json files).
func IsSidecar(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}
