//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package filesystem_test

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/servatio/pkg/filesystem"
)

func writeFile(t *testing.T, fsys filesystem.FileSystem, path, content string) {
	t.Helper()

	err := fsys.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	file, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = io.WriteString(file, content)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	_ = file.Close()
}

func TestMemFileSystem_CreateAndOpen(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/data/test.txt", "test content")

	file, err := fsys.Open("/data/test.txt")
	g.Expect(err).ShouldNot(HaveOccurred())

	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).To(Equal("test content"))
}

func TestMemFileSystem_ChtimesIsVisibleInStat(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/data/test.txt", "test")

	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g.Expect(fsys.Chtimes("/data/test.txt", modTime, modTime)).To(Succeed())

	info, err := fsys.Stat("/data/test.txt")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(info.ModTime().Equal(modTime)).To(BeTrue())
	g.Expect(info.Size()).To(Equal(int64(4)))
}

func TestReadDir_ListsImmediateChildrenOnly(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/root/a.txt", "a")
	writeFile(t, fsys, "/root/sub/b.txt", "b")

	entries, err := fsys.ReadDir("/root")
	g.Expect(err).ShouldNot(HaveOccurred())

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	g.Expect(names).To(ConsistOf("a.txt", "sub"))
}

func TestReadDir_MissingDirectoryWrapsNotExist(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()

	_, err := fsys.ReadDir("/nope")
	g.Expect(err).Should(HaveOccurred())
	g.Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
}

func TestRemoveAll_DeletesTree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/root/sub/deep/file.txt", "x")

	g.Expect(fsys.RemoveAll("/root/sub")).To(Succeed())

	_, err := fsys.Stat("/root/sub")
	g.Expect(err).Should(HaveOccurred())
}

func TestScan_VisitsEveryEntryBelowRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/root/a.txt", "aaa")
	writeFile(t, fsys, "/root/sub/b.txt", "bb")
	writeFile(t, fsys, "/root/sub/deeper/c.txt", "c")

	scanner := fsys.Scan("/root")

	var paths []string

	var total int64

	for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
		paths = append(paths, filepath.ToSlash(info.RelativePath))
		if !info.IsDir {
			total += info.Size
		}
	}

	sort.Strings(paths)
	g.Expect(scanner.Err()).ShouldNot(HaveOccurred())
	g.Expect(paths).To(Equal([]string{"a.txt", "sub", "sub/b.txt", "sub/deeper", "sub/deeper/c.txt"}))
	g.Expect(total).To(Equal(int64(6)))
}

func TestScan_SkipDirPrunesSubtree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	writeFile(t, fsys, "/root/keep.txt", "k")
	writeFile(t, fsys, "/root/.git/objects/x", "x")

	scanner := fsys.Scan("/root")

	var paths []string

	for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
		paths = append(paths, filepath.ToSlash(info.RelativePath))
		if info.IsDir && info.RelativePath == ".git" {
			scanner.SkipDir()
		}
	}

	g.Expect(paths).To(ConsistOf(".git", "keep.txt"))
}

func TestScan_MissingRootReportsError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys := filesystem.NewMemFileSystem()
	scanner := fsys.Scan("/missing")

	_, ok := scanner.Next()
	g.Expect(ok).To(BeFalse())
	g.Expect(scanner.Err()).Should(HaveOccurred())
	g.Expect(scanner.Skipped()).To(Equal(1))
}

func TestScanFollowingLinks_ResolvesSymlinks(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on Windows")
	}

	g := NewWithT(t)

	root := t.TempDir()
	fsys := filesystem.NewRealFileSystem()
	writeFile(t, fsys, filepath.Join(root, "real", "a.txt"), "a")
	writeFile(t, fsys, filepath.Join(root, "real", "b.txt"), "b")
	g.Expect(os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linked"))).To(Succeed())
	g.Expect(os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken"))).To(Succeed())

	collect := func(scanner filesystem.FileScanner) []string {
		var paths []string

		for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
			name := filepath.ToSlash(info.RelativePath)
			if info.IsDir {
				name += "/"
			}

			paths = append(paths, name)
		}

		sort.Strings(paths)

		return paths
	}

	g.Expect(collect(fsys.Scan(root))).To(Equal([]string{
		"broken", "linked", "real/", "real/a.txt", "real/b.txt",
	}))
	g.Expect(collect(filesystem.ScanFollowingLinks(fsys, root))).To(Equal([]string{
		"linked/", "linked/a.txt", "linked/b.txt", "real/", "real/a.txt", "real/b.txt",
	}))
}
