package resume

import (
	"encoding/json"
	"errors"
	"io"
	"os"
)

var ErrInvalidSnapshot = errors.New("resume: invalid snapshot")

// Load reads a snapshot from a JSON file. Unknown fields are rejected
// so a typo in the input surfaces before any money moves.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func Decode(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, errors.Join(ErrInvalidSnapshot, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Snapshot{}, ErrInvalidSnapshot
	}
	return snap, nil
}
