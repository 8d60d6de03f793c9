/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/deepcrate/internal/camelot"
	"github.com/friendsincode/deepcrate/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import analysed tracks from a manifest",
	Long: `Import analysed tracks from a YAML or JSON manifest. Tracks are matched
on file hash (or path when no hash is given), so re-importing a manifest
refreshes metadata without duplicating tracks.`,
	RunE: runImport,
}

var importManifestPath string

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importManifestPath, "manifest", "", "Path to a track manifest (.yaml, .yml or .json) (required)")
	_ = importCmd.MarkFlagRequired("manifest")
}

// manifest is the on-disk track list written by the feature extractor.
type manifest struct {
	Tracks []manifestTrack `yaml:"tracks" json:"tracks"`
}

type manifestTrack struct {
	ID       string  `yaml:"id" json:"id"`
	Path     string  `yaml:"path" json:"path"`
	Hash     string  `yaml:"hash" json:"hash"`
	Title    string  `yaml:"title" json:"title"`
	Artist   string  `yaml:"artist" json:"artist"`
	BPM      float64 `yaml:"bpm" json:"bpm"`
	Key      string  `yaml:"key" json:"key"`
	Energy   float64 `yaml:"energy" json:"energy"`
	Duration float64 `yaml:"duration" json:"duration"`
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importManifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	tracks, err := parseManifest(f, filepath.Ext(importManifestPath))
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("manifest %s lists no tracks", importManifestPath)
	}

	svc, cleanup, err := openPlanner()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := svc.Import(cmd.Context(), tracks)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d tracks from %s\n", n, importManifestPath)
	return nil
}

// parseManifest decodes a manifest by extension and converts its entries to
// tracks. Keys are accepted as wheel notation or names ("A minor"); keys
// that cannot be read are stored as unknown.
func parseManifest(r io.Reader, ext string) ([]models.Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode json manifest: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest extension %q", ext)
	}

	tracks := make([]models.Track, 0, len(m.Tracks))
	for i, t := range m.Tracks {
		if t.Path == "" && t.Hash == "" && t.ID == "" {
			return nil, fmt.Errorf("manifest entry %d has no id, path or hash", i+1)
		}
		tracks = append(tracks, models.Track{
			ID:       t.ID,
			FilePath: t.Path,
			FileHash: t.Hash,
			Title:    t.Title,
			Artist:   t.Artist,
			BPM:      t.BPM,
			Key:      camelot.Normalize(t.Key),
			Energy:   t.Energy,
			Duration: t.Duration,
		})
	}
	return tracks, nil
}
