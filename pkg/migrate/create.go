package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

// Scaffold writes an empty goose migration named <version>_<slug>.sql into
// dir. The version is derived from now but always sorts after the newest
// migration already in dir, and a slug that already exists is refused.
func Scaffold(dir, name string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(dir, slug)
	if err != nil {
		return "", err
	}
	version := now.UTC().Format(versionLayout)
	if stamp, _ := strconv.ParseInt(version, 10, 64); stamp <= latest {
		next, err := time.Parse(versionLayout, strconv.FormatInt(latest, 10))
		if err != nil {
			return "", fmt.Errorf("latest version %d is not a timestamp: %w", latest, err)
		}
		version = next.Add(time.Second).Format(versionLayout)
	}

	path := filepath.Join(dir, version+"_"+slug+".sql")
	body := fmt.Sprintf(scaffoldTemplate, slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// Slug lowercases name and collapses every run of other characters to "_".
func Slug(name string) string {
	return strings.Trim(slugInvalidRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

func latestVersion(dir, slug string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", dir, err)
	}
	var latest int64
	for _, entry := range entries {
		match := sqlFileRe.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		if strings.TrimSuffix(entry.Name()[len(match[1])+1:], ".sql") == slug {
			return 0, fmt.Errorf("migration %q already exists as %s", slug, entry.Name())
		}
		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse version of %s: %w", entry.Name(), err)
		}
		if version > latest {
			latest = version
		}
	}
	return latest, nil
}

// The same files run against postgres in production and sqlite in tests.
const scaffoldTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: use TEXT, INTEGER, BIGINT, BOOLEAN and TIMESTAMP columns only.
SELECT 1;
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
SELECT 1;
-- +goose StatementEnd
`
