//go:build !linux
// +build !linux

package raspberry

func openMem([]int, string) (Bank, error) {
	return nil, ErrUnsupported
}

func openLines(string, []int, string) (Bank, error) {
	return nil, ErrUnsupported
}
