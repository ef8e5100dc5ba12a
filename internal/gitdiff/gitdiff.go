// Package gitdiff lists source files changed between git revisions.
package gitdiff

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ChangedFiles returns the absolute paths of files under dir that differ
// between base and target. An empty target compares base with the working
// tree. Deleted files are left out.
func ChangedFiles(ctx context.Context, dir, base, target string) ([]string, error) {
	root, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("find repository root: %w", err)
	}
	root = strings.TrimSpace(root)

	args := []string{"diff", "--name-only", "--diff-filter=d", base}
	if target != "" {
		args = append(args, target)
	}
	args = append(args, "--", ".")

	output, err := git(ctx, dir, args...)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only: %w", err)
	}

	files := parseNameOnly(output)
	for i, f := range files {
		files[i] = filepath.Join(root, filepath.FromSlash(f))
	}

	log.Info().Str("base", base).Str("target", target).Int("files", len(files)).Msg("Found changed files in Git diff")
	return files, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// parseNameOnly splits `git diff --name-only` output into paths.
func parseNameOnly(output string) []string {
	var files []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

// Filter keeps the paths that are in changed.
func Filter(paths, changed []string) []string {
	set := make(map[string]bool, len(changed))
	for _, c := range changed {
		set[filepath.Clean(c)] = true
	}
	var out []string
	for _, p := range paths {
		if set[filepath.Clean(p)] {
			out = append(out, p)
		}
	}
	return out
}
