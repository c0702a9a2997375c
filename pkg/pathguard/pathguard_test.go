//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, g, etc.)
package pathguard_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/servatio/pkg/pathguard"
)

func TestValidate_AcceptsDistinctAbsolutePaths(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	base := t.TempDir()
	src := filepath.Join(base, "src")
	g.Expect(os.Mkdir(src, 0o750)).To(Succeed())

	g.Expect(pathguard.Validate(src, filepath.Join(base, "backup", "not-yet-created"))).To(Succeed())
}

func TestValidate_RejectsRelativePaths(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	abs := t.TempDir()

	err := pathguard.Validate("relative/src", abs)
	g.Expect(errors.Is(err, pathguard.ErrNotAbsolute)).To(BeTrue())

	err = pathguard.Validate(abs, "relative/dst")
	g.Expect(errors.Is(err, pathguard.ErrNotAbsolute)).To(BeTrue())

	var validationErr *pathguard.ValidationError
	g.Expect(errors.As(err, &validationErr)).To(BeTrue())
	g.Expect(validationErr.Kind).To(Equal(pathguard.NotAbsolute))
	g.Expect(validationErr.Path).To(Equal("relative/dst"))
}

func TestValidate_RejectsSameLocation(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()

	err := pathguard.Validate(dir, dir+string(filepath.Separator))
	g.Expect(errors.Is(err, pathguard.ErrSameLocation)).To(BeTrue())
}

func TestValidate_RejectsSameLocationThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	t.Parallel()
	g := NewWithT(t)

	base := t.TempDir()
	real := filepath.Join(base, "real")
	link := filepath.Join(base, "link")

	g.Expect(os.Mkdir(real, 0o750)).To(Succeed())
	g.Expect(os.Symlink(real, link)).To(Succeed())

	err := pathguard.Validate(real, link)
	g.Expect(errors.Is(err, pathguard.ErrSameLocation)).To(BeTrue())

	var validationErr *pathguard.ValidationError
	g.Expect(errors.As(err, &validationErr)).To(BeTrue())
	g.Expect(validationErr.Kind).To(Equal(pathguard.SameLocation))
}

func TestValidate_SameLocationLeavesFilesystemUntouched(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	err := pathguard.Validate(dir, filepath.Join(base, "a", ".", "b"))
	g.Expect(errors.Is(err, pathguard.ErrSameLocation)).To(BeTrue())

	_, statErr := os.Stat(filepath.Join(base, "a"))
	g.Expect(os.IsNotExist(statErr)).To(BeTrue(), "validation must not create anything")
}

func TestValidate_RejectsFilesystemRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := string(filepath.Separator)
	if runtime.GOOS == "windows" {
		root = filepath.VolumeName(os.TempDir()) + `\`
	}

	err := pathguard.Validate(t.TempDir(), root)
	g.Expect(errors.Is(err, pathguard.ErrDriveRootForbidden)).To(BeTrue())
}

func TestValidate_RejectsDestinationInsideSource(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()

	err := pathguard.Validate(src, filepath.Join(src, "mirror"))
	g.Expect(errors.Is(err, pathguard.ErrDestinationInsideSource)).To(BeTrue())
}

func TestValidate_AllowsSourceInsideDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dst := t.TempDir()
	src := filepath.Join(dst, "inner")
	g.Expect(os.Mkdir(src, 0o750)).To(Succeed())

	g.Expect(pathguard.Validate(src, dst)).To(Succeed())
}

func TestIsVolumeRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", true},
		{"//", true},
		{"/home", false},
		{"/mnt/backup/", false},
	}

	if runtime.GOOS == "windows" {
		tests = []struct {
			path     string
			expected bool
		}{
			{`C:\`, true},
			{`d:\`, true},
			{`E:/`, true},
			{`C:\Backup`, false},
			{`\\server\share\`, true},
			{`\\server\share\dir`, false},
		}
	}

	for _, tt := range tests {
		if got := pathguard.IsVolumeRoot(tt.path); got != tt.expected {
			t.Errorf("IsVolumeRoot(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestCanonical_KeepsMissingTail(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	base, err := filepath.EvalSymlinks(t.TempDir())
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(pathguard.Canonical(filepath.Join(base, "x", "y"))).To(Equal(filepath.Join(base, "x", "y")))
}

func TestKindString(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(pathguard.SameLocation.String()).To(Equal("same-location"))
	g.Expect(pathguard.Kind(99).String()).To(Equal("unknown"))
}
