package main

import (
	"strings"
	"testing"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		body string
	}{
		{
			name: "yaml",
			ext:  ".yaml",
			body: `
tracks:
  - path: /music/calibre-mr_right_on.flac
    hash: abc
    artist: Calibre
    title: Mr Right On
    bpm: 174
    key: A minor
    energy: 0.55
    duration: 372
  - path: /music/untitled.wav
    key: "13C"
`,
		},
		{
			name: "json",
			ext:  ".JSON",
			body: `{"tracks":[
				{"path":"/music/calibre-mr_right_on.flac","hash":"abc","artist":"Calibre","title":"Mr Right On","bpm":174,"key":"8a","energy":0.55,"duration":372},
				{"path":"/music/untitled.wav","key":"13C"}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := parseManifest(strings.NewReader(tt.body), tt.ext)
			if err != nil {
				t.Fatalf("parseManifest: %v", err)
			}
			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
			first := tracks[0]
			if first.FileHash != "abc" || first.BPM != 174 || first.Duration != 372 || first.DisplayName() != "Calibre - Mr Right On" {
				t.Fatalf("unexpected track %+v", first)
			}
			if first.Key != "8A" {
				t.Fatalf("key = %q, want 8A", first.Key)
			}
			if tracks[1].Key != "" {
				t.Fatalf("unreadable key should be unknown, got %q", tracks[1].Key)
			}
		})
	}
}

func TestParseManifestRejects(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		body string
	}{
		{"extension", ".csv", "tracks: []"},
		{"unknown yaml field", ".yaml", "tracks:\n  - path: a\n    tempo: 120\n"},
		{"unknown json field", ".json", `{"tracks":[{"path":"a","tempo":120}]}`},
		{"no identity", ".yaml", "tracks:\n  - title: nameless\n"},
		{"malformed", ".json", `{"tracks":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseManifest(strings.NewReader(tt.body), tt.ext); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
