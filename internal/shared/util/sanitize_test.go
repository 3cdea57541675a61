package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "resume.pdf", want: "resume.pdf"},
		{in: "My Resume (final).pdf", want: "My_Resume__final_.pdf"},
		{in: "sub/dir\\cv.docx", want: "sub_dir_cv.docx"},
		{in: "  Jöhn-CV.pdf ", want: "J_hn-CV.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "___", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanKey(t *testing.T) {
	if got, err := CleanKey("/u1/cv.pdf"); err != nil || got != "u1/cv.pdf" {
		t.Fatalf("CleanKey = %q, %v", got, err)
	}
	for _, bad := range []string{"", "u1/../../x", ".."} {
		if _, err := CleanKey(bad); err == nil {
			t.Fatalf("CleanKey(%q) expected error", bad)
		}
	}
}
