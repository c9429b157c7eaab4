package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/enkday/prizepicks-data-mirror/internal/models"
)

// Entity file names inside a bucket directory
const (
	GamesFile   = "games.json"
	TeamsFile   = "teams.json"
	PlayersFile = "players.json"
	PropsFile   = "props.json"
	SlatesFile  = "slates.json"
)

// WriteJSON writes v as indented JSON to path via a temp file and rename,
// so readers never observe a partially written file.
func WriteJSON(path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}

	return nil
}

// MarshalJSON renders v with two-space indentation and a trailing newline
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadJSON decodes the file at path into v.
// A missing file is reported as ErrBucketNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// WriteBucketSet writes the five entity files of a bucket into dir
func WriteBucketSet(dir string, set *models.BucketSet) error {
	files := []struct {
		name string
		v    any
	}{
		{GamesFile, set.Games},
		{TeamsFile, set.Teams},
		{PlayersFile, set.Players},
		{PropsFile, set.Props},
		{SlatesFile, set.Slates},
	}

	for _, f := range files {
		if err := WriteJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// ReadGames loads games.json from a bucket directory
func ReadGames(dir string) ([]models.Game, error) {
	games := make([]models.Game, 0)
	if err := ReadJSON(filepath.Join(dir, GamesFile), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// ReadProps loads props.json from a bucket directory
func ReadProps(dir string) ([]models.Prop, error) {
	props := make([]models.Prop, 0)
	if err := ReadJSON(filepath.Join(dir, PropsFile), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// ReadBucketSet loads all entity files of a bucket directory
func ReadBucketSet(dir string, b models.Bucket) (*models.BucketSet, error) {
	set := &models.BucketSet{Bucket: b}

	files := []struct {
		name string
		v    any
	}{
		{GamesFile, &set.Games},
		{TeamsFile, &set.Teams},
		{PlayersFile, &set.Players},
		{PropsFile, &set.Props},
		{SlatesFile, &set.Slates},
	}
	for _, f := range files {
		if err := ReadJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return nil, err
		}
	}
	return set, nil
}
