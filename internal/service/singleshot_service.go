package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/extractor"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/telegram"
)

const (
	singleShotMaxFiles = 10
	singleShotMaxBytes = 49 * 1024 * 1024
)

// SingleShotService runs the synchronous fetch-and-relay flow for one
// interactive request: isolated temp directory, size filtering, document
// uploads, guaranteed cleanup. Nothing touches the persistent store.
type SingleShotService struct {
	reg     *extractor.Registry
	tg      *telegram.Client
	workDir string
}

// NewSingleShotService builds the flow. workDir is the parent for request
// temp directories; empty means the system temp dir.
func NewSingleShotService(reg *extractor.Registry, tg *telegram.Client, workDir string) *SingleShotService {
	return &SingleShotService{
		reg:     reg,
		tg:      tg,
		workDir: workDir,
	}
}

// Run handles one request. Every outcome, including failures, is reported
// through reply rather than returned; the temp directory is removed on
// every exit path.
func (s *SingleShotService) Run(ctx context.Context, input, chatID string, reply func(string)) {
	rawURL := strings.TrimSpace(input)
	if !IsURL(rawURL) {
		reply("invalid input: send a URL starting with http or https")
		return
	}

	ext := s.reg.Match(rawURL)
	if ext == nil {
		reply("invalid input: unsupported URL")
		return
	}

	dir, err := os.MkdirTemp(s.workDir, "singleshot-*")
	if err != nil {
		reply(fmt.Sprintf("internal error: %v", err))
		return
	}
	// Removal must happen on every exit path, panics included.
	defer os.RemoveAll(dir)

	files, err := ext.Fetch(ctx, rawURL, dir)
	if err != nil {
		var toolErr *extractor.ToolError
		switch {
		case errors.Is(err, extractor.ErrNoFiles):
			reply("no sendable files")
		case errors.As(err, &toolErr):
			reply("download failed: " + lastN(toolErr.Diagnostic(), maxSingleShotLen))
		default:
			reply("download failed: " + lastN(err.Error(), maxSingleShotLen))
		}
		return
	}

	var sendable []extractor.FetchedFile
	for _, f := range files {
		if !f.Sidecar {
			sendable = append(sendable, f)
		}
	}
	if len(sendable) == 0 {
		reply("no sendable files")
		return
	}
	if len(sendable) > singleShotMaxFiles {
		sendable = sendable[:singleShotMaxFiles]
	}

	sent := 0
	for _, f := range sendable {
		if f.Size > singleShotMaxBytes {
			reply(fmt.Sprintf("skipped large file: %s (%.1fMB)", f.Name, float64(f.Size)/(1024*1024)))
			continue
		}
		if _, err := s.tg.SendDocument(ctx, chatID, f.Path); err != nil {
			reply(fmt.Sprintf("internal error: %s", lastN(err.Error(), maxSingleShotLen)))
			return
		}
		sent++
	}

	reply(fmt.Sprintf("sent %d files", sent))
}
