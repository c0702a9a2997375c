//go:build !(linux || darwin || freebsd || dragonfly || windows)

package space

func freeSpace(string) (uint64, error) {
	return 0, ErrUnsupported
}
