package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

const (
	byTypeFlag = "--bytype"
	// git fame --bytype has no file counts, one file is assumed per this many lines
	estimatedLinesPerFile = 500
)

// BlameExtractor runs the blame and line counting tools against a working copy
type BlameExtractor struct {
	runner      CommandRunner
	timeout     time.Duration
	blameName   string
	blameArgs   []string
	counterName string
	counterArgs []string
}

// NewBlameExtractor creates an extractor. Commands are argv lists and
// lineCounterCommand may be empty to disable the line counter.
func NewBlameExtractor(runner CommandRunner, timeout time.Duration, blameCommand, lineCounterCommand []string) (*BlameExtractor, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	name, args, err := splitCommand(blameCommand)
	if err != nil {
		return nil, fmt.Errorf("invalid blame command: %w", err)
	}

	e := &BlameExtractor{
		runner:    runner,
		timeout:   timeout,
		blameName: name,
		blameArgs: args,
	}

	if len(lineCounterCommand) > 0 {
		if e.counterName, e.counterArgs, err = splitCommand(lineCounterCommand); err != nil {
			return nil, fmt.Errorf("invalid line counter command: %w", err)
		}
	}

	return e, nil
}

// ExtractAuthors returns per-author blame totals for the working copy at
// repoPath. Any failure is an *ExtractionError, never an empty list.
func (e *BlameExtractor) ExtractAuthors(ctx context.Context, repoPath string) ([]models.AuthorRecord, error) {
	fail := func(err error) error {
		return &ExtractionError{Repository: filepath.Base(repoPath), Stage: models.StageAuthors, Err: err}
	}

	if err := checkWorkingCopy(repoPath); err != nil {
		return nil, fail(err)
	}

	out, err := e.run(ctx, repoPath, e.blameName, e.blameArgs...)
	if err != nil {
		return nil, fail(err)
	}

	records, err := parseAuthorOutput(out)
	if err != nil {
		return nil, fail(err)
	}

	logger.WithField("repository", filepath.Base(repoPath)).Debugf("Extracted %d authors", len(records))
	return records, nil
}

// ExtractExtensionStats returns per-extension line counts from a by-type blame
// run. Callers should treat an error as missing language data.
func (e *BlameExtractor) ExtractExtensionStats(ctx context.Context, repoPath string) (map[string]models.AuthorStats, error) {
	if err := checkWorkingCopy(repoPath); err != nil {
		return map[string]models.AuthorStats{}, err
	}

	args := append(append([]string{}, e.blameArgs...), byTypeFlag)
	out, err := e.run(ctx, repoPath, e.blameName, args...)
	if err != nil {
		return map[string]models.AuthorStats{}, err
	}

	stats, err := parseExtensionOutput(out)
	if err != nil {
		return map[string]models.AuthorStats{}, err
	}
	return stats, nil
}

// ExtractLineCounts returns the line counter's per-category code lines. It
// returns nil without error when no line counter is configured.
func (e *BlameExtractor) ExtractLineCounts(ctx context.Context, repoPath string) (map[string]models.LineCount, error) {
	if e.counterName == "" {
		return nil, nil
	}
	if err := checkWorkingCopy(repoPath); err != nil {
		return nil, err
	}

	out, err := e.run(ctx, repoPath, e.counterName, e.counterArgs...)
	if err != nil {
		return nil, err
	}
	return parseLineCounterOutput(out)
}

func (e *BlameExtractor) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.runner.Run(runCtx, dir, name, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s after %s", ErrExtractionTimeout, name, e.timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return out, nil
}

func checkWorkingCopy(repoPath string) error {
	if strings.TrimSpace(repoPath) == "" {
		return fmt.Errorf("%w: empty path", ErrNotARepository)
	}
	if _, err := os.Stat(repoPath); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotARepository, repoPath, err)
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return fmt.Errorf("%w: %s has no .git", ErrNotARepository, repoPath)
	}
	return nil
}

type authorOutput struct {
	Data *[]json.RawMessage `json:"data"`
}

// rawAuthor accepts either {author, loc, commits, files} or
// [name, loc, commits, files, ...]
type rawAuthor struct {
	Name    string
	LOC     int
	Commits int
	Files   int
}

func (a *rawAuthor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty author entry")
	}

	switch b[0] {
	case '{':
		var obj struct {
			Author  json.RawMessage `json:"author"`
			LOC     json.RawMessage `json:"loc"`
			Commits json.RawMessage `json:"commits"`
			Files   json.RawMessage `json:"files"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		name, err := decodeName(obj.Author)
		if err != nil {
			return err
		}
		a.Name = name
		return a.decodeCounts(obj.LOC, obj.Commits, obj.Files)
	case '[':
		var row []json.RawMessage
		if err := json.Unmarshal(b, &row); err != nil {
			return err
		}
		if len(row) < 4 {
			return fmt.Errorf("author row has %d fields, want at least 4", len(row))
		}
		name, err := decodeName(row[0])
		if err != nil {
			return err
		}
		a.Name = name
		return a.decodeCounts(row[1], row[2], row[3])
	default:
		return fmt.Errorf("author entry is neither object nor array")
	}
}

func decodeName(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("author name is not a string: %w", err)
	}
	return name, nil
}

func (a *rawAuthor) decodeCounts(loc, commits, files json.RawMessage) error {
	var err error
	if a.LOC, err = decodeCount("loc", loc); err != nil {
		return err
	}
	if a.Commits, err = decodeCount("commits", commits); err != nil {
		return err
	}
	a.Files, err = decodeCount("files", files)
	return err
}

// decodeCount reads a JSON number or digit string. A missing field is 0 and
// negative values clamp to 0. Anything else is an error.
func decodeCount(field string, raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return countFromFloat(field, n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%s %q is not a count", field, s)
		}
		return max(v, 0), nil
	}

	return 0, fmt.Errorf("%s %s is not a count", field, truncate(string(raw), 40))
}

func countFromFloat(field string, n float64) (int, error) {
	if n < 0 {
		return 0, nil
	}
	if n >= math.MaxInt {
		return 0, fmt.Errorf("%s %g is out of range", field, n)
	}
	return int(n), nil
}

func parseAuthorOutput(out []byte) ([]models.AuthorRecord, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidToolOutput)
	}

	var parsed authorOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolOutput, err)
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("%w: missing list field \"data\"", ErrInvalidToolOutput)
	}

	records := make([]models.AuthorRecord, 0, len(*parsed.Data))
	for i, raw := range *parsed.Data {
		var author rawAuthor
		if err := json.Unmarshal(raw, &author); err != nil {
			logger.WithFields(map[string]interface{}{
				"index": i,
				"entry": truncate(string(raw), 120),
			}).Warnf("Skipping malformed author entry: %v", err)
			continue
		}
		records = append(records, models.NewAuthorRecord(author.Name, author.LOC, author.Commits, author.Files))
	}
	return records, nil
}

var extensionFilenames = map[string]bool{
	"Makefile":         true,
	"Dockerfile":       true,
	"CMakeLists.txt":   true,
	"package.json":     true,
	"requirements.txt": true,
	"go.mod":           true,
	"Cargo.toml":       true,
	"composer.json":    true,
	"Gemfile":          true,
}

func parseExtensionOutput(out []byte) (map[string]models.AuthorStats, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(out, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolOutput, err)
	}

	section := top
	if rawTotal, ok := top["total"]; ok {
		var total map[string]json.RawMessage
		if err := json.Unmarshal(rawTotal, &total); err == nil {
			section = total
		}
	}

	stats := make(map[string]models.AuthorStats)
	for key, raw := range section {
		if !strings.HasPrefix(key, ".") && !extensionFilenames[key] {
			continue
		}
		var loc float64
		if err := json.Unmarshal(raw, &loc); err != nil {
			continue
		}
		lines, err := countFromFloat(key, loc)
		if err != nil {
			logger.WithField("extension", key).Warnf("Skipping extension: %v", err)
			continue
		}
		files := lines / estimatedLinesPerFile
		if files < 1 {
			files = 1
		}
		stats[key] = models.NewAuthorStats(lines, 0, files)
	}
	return stats, nil
}

func parseLineCounterOutput(out []byte) (map[string]models.LineCount, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(out, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolOutput, err)
	}

	counts := make(map[string]models.LineCount)
	for category, raw := range top {
		if category == "header" || category == "SUM" {
			continue
		}
		var entry struct {
			Code   int `json:"code"`
			NFiles int `json:"nFiles"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		counts[category] = models.LineCount{Code: max(entry.Code, 0), Files: max(entry.NFiles, 0)}
	}
	return counts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
