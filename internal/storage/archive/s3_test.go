// internal/storage/archive/s3_test.go
package archive

import (
	"strings"
	"testing"
)

func TestS3Archive_ImplementsArchive(t *testing.T) {
	var _ Archive = (*S3Archive)(nil)
}

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "daily/2024-03-04.json", "daily/2024-03-04.json"},
		{"reports", "daily/2024-03-04.json", "reports/daily/2024-03-04.json"},
		{"reports/", "daily/2024-03-04.json", "reports/daily/2024-03-04.json"},
	}

	for _, tt := range tests {
		s := &S3Archive{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}
