package daphne

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
	"github.com/irhox/daphne/pkg/shm"
)

// stager tracks everything one materialization pushes across the
// process boundary so it can all be released afterwards, on success
// and on failure alike.
type stager struct {
	files    []string
	segments []*shm.Segment
}

func newStager() *stager { return &stager{} }

func (s *stager) stageCSV(path string, d *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	s.files = append(s.files, path)
	if err := d.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: staging %s: %v", ErrTransfer, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: staging %s: %v", ErrTransfer, path, err)
	}
	return s.meta(path, metaFile{
		NumRows:   int64(d.Rows()),
		NumCols:   int64(d.Cols()),
		ValueType: string(d.ValueType()),
	})
}

func (s *stager) stageJSON(path string, rows [][]string) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrTransfer, path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	s.files = append(s.files, path)
	return s.meta(path, metaFile{
		NumRows:   int64(len(rows)),
		NumCols:   int64(len(rows[0])),
		ValueType: string(mat.Str),
	})
}

func (s *stager) stageFrame(path string, rec arrow.Record) error {
	if err := writeFrameCSV(path, rec); err != nil {
		return fmt.Errorf("%w: staging %s: %v", ErrTransfer, path, err)
	}
	s.files = append(s.files, path)
	return s.meta(path, frameMeta(rec))
}

func (s *stager) meta(dataPath string, m metaFile) error {
	path := dataPath + ".meta"
	if err := writeMeta(path, m); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	s.files = append(s.files, path)
	return nil
}

func (s *stager) stageShm(key string, d *mat.Dense) error {
	if !shm.Available() {
		return fmt.Errorf("%w: shared memory unavailable", ErrTransfer)
	}
	size, err := shm.SizeFor(shm.Header{
		ValueType: d.ValueType(),
		Rows:      uint64(d.Rows()),
		Cols:      uint64(d.Cols()),
	})
	if err != nil {
		return fmt.Errorf("%w: segment %s: %v", ErrTransfer, key, err)
	}
	seg, err := shm.Create(key, size)
	if err != nil {
		return fmt.Errorf("%w: segment %s: %v", ErrTransfer, key, err)
	}
	s.segments = append(s.segments, seg)
	if err := shm.WriteMatrix(seg, d); err != nil {
		return fmt.Errorf("%w: segment %s: %v", ErrTransfer, key, err)
	}
	return nil
}

// cleanup releases staged files and segments. Best effort: the staging
// directory is removed wholesale at context close anyway.
func (s *stager) cleanup() {
	for _, seg := range s.segments {
		seg.Close()
		seg.Unlink()
	}
	s.segments = nil
	for _, path := range s.files {
		os.Remove(path)
	}
	s.files = nil
}
