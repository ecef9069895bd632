package tui

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// MapFile memory-maps path read-only so inspecting a large capture file
// never requires buffering it whole. Filesystems/OSes that refuse mmap
// fall back to a plain read; either way the caller gets a []byte and a
// function to release whatever resource backs it.
func MapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err == nil {
		return []byte(m), m.Unmap, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, nil, readErr
	}
	return data, func() error { return nil }, nil
}
