package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

// CommandExtractor runs an external downloader program for matching URLs.
// Args may contain the {url} and {dir} placeholders.
type CommandExtractor struct {
	name    string
	pattern *regexp.Regexp
	binary  string
	args    []string
	timeout time.Duration
}

func NewCommandExtractor(name, pattern, binary string, args []string, timeout time.Duration) (*CommandExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &CommandExtractor{
		name:    name,
		pattern: re,
		binary:  binary,
		args:    args,
		timeout: timeout,
	}, nil
}

// NewGalleryDL returns the catch-all gallery-dl extractor.
func NewGalleryDL(binary string, timeout time.Duration) *CommandExtractor {
	e, _ := NewCommandExtractor("gallery-dl", ".*", binary,
		[]string{"-D", "{dir}", "--write-metadata", "--no-mtime", "{url}"}, timeout)
	return e
}

func (e *CommandExtractor) Name() string {
	return e.name
}

func (e *CommandExtractor) Match(url string) bool {
	return e.pattern.MatchString(url)
}

// Fetch invokes the tool with output directed into destDir and returns the
// files attributed to this run. Attribution is two-tier: a file path parsed
// from tool stdout wins; otherwise files found in destDir ordered most
// recently modified first. destDir must be private to the caller.
func (e *CommandExtractor) Fetch(ctx context.Context, url, destDir string) ([]FetchedFile, error) {
	args := make([]string, len(e.args))
	for i, arg := range e.args {
		arg = strings.ReplaceAll(arg, "{url}", url)
		arg = strings.ReplaceAll(arg, "{dir}", destDir)
		args[i] = arg
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ToolError{Timeout: true, Stderr: stderr.String(), Stdout: stdout.String()}
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &ToolError{ExitCode: code, Stderr: stderr.String(), Stdout: stdout.String()}
	}

	files := collectFiles(destDir)
	if primary := parseStdoutFile(stdout.String()); primary != "" {
		files = promote(files, primary)
	}
	if len(files) == 0 {
		// Stdout may name a file outside destDir.
		if primary := parseStdoutFile(stdout.String()); primary != "" {
			if f, ok := statFile(primary); ok {
				files = []FetchedFile{f}
			}
		}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// parseStdoutFile scans tool stdout from the last line backward for a line
// that is a path to an existing regular file.
func parseStdoutFile(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		// gallery-dl prefixes already-downloaded entries with "# ".
		line = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		if line == "" {
			continue
		}
		if fi, err := os.Stat(line); err == nil && fi.Mode().IsRegular() {
			return line
		}
	}
	return ""
}

// collectFiles enumerates regular files under dir recursively, most
// recently modified first.
func collectFiles(dir string) []FetchedFile {
	var files []FetchedFile
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if f, ok := statFile(path); ok {
			files = append(files, f)
		}
		return nil
	})
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files
}

// promote moves the file at path to the front of files, if present.
func promote(files []FetchedFile, path string) []FetchedFile {
	for i, f := range files {
		if f.Path == path {
			return append(append([]FetchedFile{f}, files[:i]...), files[i+1:]...)
		}
	}
	return files
}

func statFile(path string) (FetchedFile, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return FetchedFile{}, false
	}
	return FetchedFile{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        fi.Size(),
		ContentType: detectContentType(path),
		Sidecar:     IsSidecar(path),
		ModTime:     fi.ModTime(),
	}, true
}

func detectContentType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := f.Read(head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
