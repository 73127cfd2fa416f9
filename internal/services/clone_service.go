package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

// CheckoutService makes sure every repository target has a working copy
type CheckoutService struct {
	runner        CommandRunner
	cloneBasePath string
	token         string
}

// NewCheckoutService creates a new checkout service. token may be empty for
// public repositories.
func NewCheckoutService(runner CommandRunner, cloneBasePath, token string) *CheckoutService {
	return &CheckoutService{
		runner:        runner,
		cloneBasePath: cloneBasePath,
		token:         token,
	}
}

// Checkout returns the working copy path for target, cloning or pulling as
// needed. A target with a Path is used as-is.
func (s *CheckoutService) Checkout(ctx context.Context, target models.RepositoryTarget) (string, error) {
	fail := func(err error) error {
		return &ExtractionError{Repository: target.DisplayName, Stage: models.StageCheckout, Err: err}
	}

	if target.Path != "" {
		if !isRepositoryCloned(target.Path) {
			return "", fail(fmt.Errorf("%w: %s", ErrNotARepository, target.Path))
		}
		return target.Path, nil
	}

	repoClonePath := s.GetClonePath(target.Name)

	// without a clone URL only an earlier clone can be used
	if target.CloneURL == "" {
		if isRepositoryCloned(repoClonePath) {
			return repoClonePath, nil
		}
		return "", fail(errors.New("repository has neither a path nor a clone URL"))
	}

	if err := os.MkdirAll(s.cloneBasePath, 0755); err != nil {
		return "", fail(fmt.Errorf("failed to create clones directory: %w", err))
	}

	var err error
	if isRepositoryCloned(repoClonePath) {
		logger.WithRepository(target.DisplayName).Info("Pulling repository")
		err = s.pullRepository(ctx, repoClonePath, target.CloneURL)
	} else {
		logger.WithRepository(target.DisplayName).Info("Cloning repository")
		err = s.cloneRepository(ctx, repoClonePath, target.CloneURL)
	}
	if err != nil {
		return "", fail(err)
	}

	return repoClonePath, nil
}

func isRepositoryCloned(repoPath string) bool {
	info, err := os.Stat(filepath.Join(repoPath, ".git"))
	return err == nil && info.IsDir()
}

func (s *CheckoutService) cloneRepository(ctx context.Context, repoPath, cloneURL string) error {
	// Remove directory if it exists but is not a git repo
	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("failed to clean repository directory: %w", err)
	}

	args := append(s.authArgs(cloneURL), "clone", cloneURL, repoPath)
	if _, err := s.runner.Run(ctx, s.cloneBasePath, "git", args...); err != nil {
		return fmt.Errorf("failed to clone repository: %w", s.redact(err))
	}
	return nil
}

func (s *CheckoutService) pullRepository(ctx context.Context, repoPath, cloneURL string) error {
	// also drops credentials an older clone may have kept in its remote URL
	if _, err := s.runner.Run(ctx, repoPath, "git", "remote", "set-url", "origin", cloneURL); err != nil {
		return fmt.Errorf("failed to set remote URL: %w", s.redact(err))
	}
	args := append(s.authArgs(cloneURL), "pull", "--ff-only")
	if _, err := s.runner.Run(ctx, repoPath, "git", args...); err != nil {
		return fmt.Errorf("failed to pull repository: %w", s.redact(err))
	}
	return nil
}

// authArgs passes the token as a one-off HTTP header so it is never written
// to the working copy's git config
func (s *CheckoutService) authArgs(cloneURL string) []string {
	if s.token == "" || !strings.HasPrefix(cloneURL, "https://") {
		return nil
	}
	return []string{"-c", "http.extraHeader=Authorization: Basic " + s.basicAuth()}
}

func (s *CheckoutService) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte("x-access-token:" + s.token))
}

// redact keeps the token out of error messages and logs
func (s *CheckoutService) redact(err error) error {
	if s.token == "" {
		return err
	}
	replacer := strings.NewReplacer(s.basicAuth(), "***", s.token, "***")

	var execErr *ExecError
	if errors.As(err, &execErr) {
		clean := *execErr
		clean.Args = make([]string, len(execErr.Args))
		for i, arg := range execErr.Args {
			clean.Args[i] = replacer.Replace(arg)
		}
		clean.Stderr = replacer.Replace(execErr.Stderr)
		return &clean
	}
	return errors.New(replacer.Replace(err.Error()))
}

// GetClonePath returns the local path where a repository is cloned
func (s *CheckoutService) GetClonePath(repoName string) string {
	return filepath.Join(s.cloneBasePath, repoName)
}
