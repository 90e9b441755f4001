// Package storage persists analysis reports and configuration under the
// .spacecheck directory.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
)

const SpacecheckDir = ".spacecheck"
const ConfigFile = "config.yaml"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// ResolvePath ensures the path stays a direct child of the .spacecheck
// directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, SpacecheckDir)
	fullPath := filepath.Join(baseDir, filename)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, SpacecheckDir)
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create .spacecheck directory: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, SpacecheckDir))
	return err == nil
}

// reportFilename sanitizes the space id so a hostile id cannot escape the
// reports directory.
func reportFilename(spaceID string) string {
	safe := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			return c
		default:
			return '_'
		}
	}, spaceID)
	return "analysis_" + safe + ".json"
}

func (r *FilesystemRepository) SaveReport(out *analysis.AgentOutput) error {
	if out == nil {
		return fmt.Errorf("report is nil")
	}
	if err := r.Initialize(); err != nil {
		return err
	}

	path, err := r.ResolvePath(reportFilename(out.GenieSpaceID))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	retryer := retry.New[struct{}](r.retryConfig)
	_, err = retryer.Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, os.WriteFile(path, data, 0600)
	})
	return err
}

func (r *FilesystemRepository) LoadReport(spaceID string) (*analysis.AgentOutput, error) {
	retryer := retry.New[*analysis.AgentOutput](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*analysis.AgentOutput, error) {
		path, err := r.ResolvePath(reportFilename(spaceID))
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}

		var out analysis.AgentOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		return &out, nil
	})
}

// ListReports returns the space ids with a stored report, sorted.
func (r *FilesystemRepository) ListReports() ([]string, error) {
	baseDir := filepath.Join(r.root, SpacecheckDir)
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "analysis_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, "analysis_"), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
