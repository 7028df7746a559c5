package domain

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate also rejects ids that cannot be used as a file name.
func (j MessageJob) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if strings.ContainsAny(j.ID, `/\`) || j.ID == "." || j.ID == ".." {
		return fmt.Errorf("%w: id %q is not a valid file name", ErrInvalidJob, j.ID)
	}
	return nil
}

// ConfineFiles resolves the job's attachments inside root. Paths may be
// relative to root or absolute within it. With no root, jobs may not carry
// attachments at all.
func (j MessageJob) ConfineFiles(root string) (MessageJob, error) {
	if len(j.Files) == 0 {
		return j, nil
	}
	if root == "" {
		return j, fmt.Errorf("%w: attachments are not enabled", ErrInvalidJob)
	}
	root = filepath.Clean(root)

	files := make([]string, 0, len(j.Files))
	for _, f := range j.Files {
		if slices.Contains(strings.Split(filepath.ToSlash(f), "/"), "..") {
			return j, fmt.Errorf("%w: attachment %q may not contain ..", ErrInvalidJob, f)
		}
		p := f
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		rel, err := filepath.Rel(root, filepath.Clean(p))
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return j, fmt.Errorf("%w: attachment %q is outside %s", ErrInvalidJob, f, root)
		}
		files = append(files, filepath.Join(root, rel))
	}
	j.Files = files
	return j, nil
}
