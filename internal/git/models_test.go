package git

import "testing"

func TestCommit_FirstParent(t *testing.T) {
	tests := []struct {
		name    string
		parents []string
		want    string
	}{
		{"root", nil, ""},
		{"single", []string{"p1"}, "p1"},
		{"merge", []string{"p1", "p2"}, "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Commit{ID: "c", Parents: tt.parents}
			if got := c.FirstParent(); got != tt.want {
				t.Errorf("FirstParent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileChange_Code(t *testing.T) {
	tests := []struct {
		status string
		want   byte
	}{
		{"A", 'A'},
		{"R100", 'R'},
		{"C075", 'C'},
		{"", 0},
	}
	for _, tt := range tests {
		if got := (FileChange{Status: tt.status}).Code(); got != tt.want {
			t.Errorf("Code(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"native", BackendNative},
		{"cli", BackendCLI},
		{"git", BackendCLI},
		{"", BackendNative},
		{"unknown", BackendNative},
	}
	for _, tt := range tests {
		if got := ParseBackend(tt.in); got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
