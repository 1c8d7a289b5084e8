package workq

import (
	"bufio"
	"errors"
	"io"
	"os"
)

const spillBufferSize = 64 * 1024

// spillFile is the single overflow file of a queue. Records are appended at
// writeOff and reloaded in FIFO order from readOff. Once every record has
// been read back the file is truncated and both offsets rewind to zero.
//
// NOT thread-safe: only LoadUnload and Destroy touch it, under the queue lock.
type spillFile[T any] struct {
	dir   string
	codec Codec[T]

	f    *os.File
	path string

	readOff  int64
	writeOff int64
	pending  int // records written and not yet read back
}

func newSpillFile[T any](dir string, codec Codec[T]) *spillFile[T] {
	return &spillFile[T]{dir: dir, codec: codec}
}

// ensureOpen creates the file on first use
func (s *spillFile[T]) ensureOpen() error {
	if s.f != nil {
		return nil
	}
	f, err := os.CreateTemp(s.dir, "workq-spill-*.bin")
	if err != nil {
		return &QueueError{Kind: KindResource, Op: "create spill file", Err: err}
	}
	adviseSequential(f)
	s.f = f
	s.path = f.Name()
	return nil
}

// write appends items to the end of the file
func (s *spillFile[T]) write(items []T) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if _, err := s.f.Seek(s.writeOff, io.SeekStart); err != nil {
		return errIO("spill", err)
	}

	bw := bufio.NewWriterSize(s.f, spillBufferSize)
	cw := &countingWriter{w: bw}
	for _, item := range items {
		if err := s.codec.Save(cw, item); err != nil {
			return errIO("spill", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errIO("spill", err)
	}

	s.writeOff += cw.n
	s.pending += len(items)
	return nil
}

// read loads up to n records from the read cursor
func (s *spillFile[T]) read(n int) ([]T, error) {
	if n > s.pending {
		n = s.pending
	}
	if n == 0 {
		return nil, nil
	}
	if _, err := s.f.Seek(s.readOff, io.SeekStart); err != nil {
		return nil, errIO("reload", err)
	}

	cr := &countingReader{r: bufio.NewReaderSize(s.f, spillBufferSize)}
	items := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, err := s.codec.Load(cr)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, errIO("reload", ErrSpillTruncated)
			}
			return nil, errIO("reload", err)
		}
		items = append(items, item)
	}

	s.readOff += cr.n
	s.pending -= n
	if s.pending == 0 {
		if err := s.rewind(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// rewind truncates the fully reloaded file
func (s *spillFile[T]) rewind() error {
	if err := s.f.Truncate(0); err != nil {
		return errIO("rewind", err)
	}
	adviseDontNeed(s.f)
	s.readOff, s.writeOff = 0, 0
	return nil
}

// close closes and removes the file
func (s *spillFile[T]) close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	if rmErr := os.Remove(s.path); err == nil && rmErr != nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	s.f = nil
	s.pending = 0
	s.readOff, s.writeOff = 0, 0
	if err != nil {
		return errIO("close spill file", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
