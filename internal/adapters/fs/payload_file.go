package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/gifcase/gifship/internal/domain"
)

// LoadPayload reads the file at path. A max of zero or less disables the
// size check.
func LoadPayload(path string, max int) (domain.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Payload{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Payload{}, err
	}
	if info.IsDir() {
		return domain.Payload{}, fmt.Errorf("%s is a directory", path)
	}
	if max > 0 && info.Size() > int64(max) {
		return domain.Payload{}, fmt.Errorf("%w: %s is %d bytes, limit %d", domain.ErrPayloadTooLarge, path, info.Size(), max)
	}

	r := io.Reader(f)
	if max > 0 {
		// The file may grow between Stat and Read.
		r = io.LimitReader(f, int64(max)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Payload{}, err
	}
	if max > 0 && len(data) > max {
		return domain.Payload{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrPayloadTooLarge, path, max)
	}
	payload := domain.NewPayload(data)
	if payload.Empty() {
		return domain.Payload{}, fmt.Errorf("%w: %s", domain.ErrEmptyPayload, path)
	}
	return payload, nil
}
