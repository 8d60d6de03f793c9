package version

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GoVersion != runtime.Version() {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "1.2.3"}, "1.2.3"},
		{Info{Version: "1.2.3", Commit: "abc123"}, "1.2.3 (abc123)"},
		{Info{Version: "1.2.3", Commit: "abc123", Modified: true}, "1.2.3 (abc123-dirty)"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
