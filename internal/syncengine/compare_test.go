package syncengine_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Gomega convention

	"github.com/joe/servatio/internal/syncengine"
	"github.com/joe/servatio/pkg/filesystem"
)

func TestFilesEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcBody  string
		dstBody  string
		dstDelta time.Duration
		want     bool
	}{
		{"identical", "abc", "abc", 0, true},
		{"0.9s apart", "abc", "abc", 900 * time.Millisecond, true},
		{"0.9s apart other direction", "abc", "abc", -900 * time.Millisecond, true},
		{"exactly one second apart", "abc", "abc", time.Second, false},
		{"1.5s apart", "abc", "abc", 1500 * time.Millisecond, false},
		{"size differs", "abc", "abcd", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			fsys := filesystem.NewMemFileSystem()
			writeFile(t, fsys, "/a/file", tt.srcBody, baseTime)
			writeFile(t, fsys, "/b/file", tt.dstBody, baseTime.Add(tt.dstDelta))

			g.Expect(syncengine.FilesEqual(fsys, "/a/file", "/b/file")).To(Equal(tt.want))
		})
	}
}

func TestFilesEqual_MissingSideIsNotEqual(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/a/file", "abc", baseTime)

	g.Expect(syncengine.FilesEqual(fsys, "/a/file", "/b/file")).To(BeFalse())
	g.Expect(syncengine.FilesEqual(fsys, "/b/file", "/a/file")).To(BeFalse())
}
