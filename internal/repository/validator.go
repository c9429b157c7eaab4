package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnhealthy marks a bucket that must not be promoted or archived
var ErrUnhealthy = errors.New("bucket unhealthy")

// requiredFiles must exist, parse, and be non-empty for a bucket to be healthy
var requiredFiles = []string{GamesFile, PropsFile}

// Validator checks bucket directories for health
type Validator struct {
	required []string
}

// NewValidator creates a validator for the standard required files
func NewValidator() *Validator {
	return &Validator{required: requiredFiles}
}

// Check returns nil for a healthy bucket and an error wrapping ErrUnhealthy otherwise
func (v *Validator) Check(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist", ErrUnhealthy, dir)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUnhealthy, dir)
	}

	for _, name := range v.required {
		if err := checkFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Healthy reports whether Check passes
func (v *Validator) Healthy(dir string) bool {
	return v.Check(dir) == nil
}

func checkFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s missing", ErrUnhealthy, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", ErrUnhealthy, filepath.Base(path), err)
	}

	switch d := doc.(type) {
	case []any:
		if len(d) > 0 {
			return nil
		}
	case map[string]any:
		if len(d) > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is empty", ErrUnhealthy, filepath.Base(path))
}
