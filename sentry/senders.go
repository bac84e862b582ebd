/*
DESCRIPTION
  senders.go provides the outputs that annotated frames are written to.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sentry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ausocean/sentry/codec/mjpeg"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Pool buffer parameters for asynchronous outputs.
const (
	poolElements    = 64
	poolElementSize = 256 << 10 // Bytes.
	poolReadTimeout = 100 * time.Millisecond
	poolDrainWait   = 10 * time.Millisecond
	poolWriteWait   = time.Second
)

// Free space to leave on the output file system.
const spaceBuffer = 50000000 // 50MB.

// fileSender writes frames to the file system. With multiFile unset, every
// frame is appended to the single MJPEG file at path; otherwise each frame
// is written to its own JPEG file in the directory at path.
type fileSender struct {
	file      *os.File
	multiFile bool
	path      string
	count     int
	log       logging.Logger
}

func newFileSender(l logging.Logger, path string, multiFile bool) *fileSender {
	return &fileSender{
		path:      path,
		log:       l,
		multiFile: multiFile,
	}
}

// Write implements io.Writer.
func (s *fileSender) Write(d []byte) (int, error) {
	dir := s.path
	if !s.multiFile {
		dir = filepath.Dir(s.path)
	}
	s.log.Debug("checking disk space")
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("could not read system disk space, abandoning write: %w", err)
	}
	availableSpace := stat.Bavail * uint64(stat.Bsize)
	s.log.Debug("available disk space in bytes", "availableSpace", availableSpace)
	if availableSpace < spaceBuffer {
		return 0, fmt.Errorf("reached limit of disk space with a buffer of %v bytes, abandoning write", spaceBuffer)
	}

	if s.file == nil {
		name := s.path
		if s.multiFile {
			name = filepath.Join(s.path, fmt.Sprintf("%s_%06d.jpg", time.Now().Format("2006-01-02_15-04-05"), s.count))
		}
		s.log.Debug("creating new output file", "multiFile", s.multiFile, "fileName", name)
		f, err := os.Create(name)
		if err != nil {
			return 0, fmt.Errorf("could not create file to write frames to: %w", err)
		}
		s.file = f
	}

	s.log.Debug("writing to output file", "bytes", len(d))
	n, err := s.file.Write(d)
	if err != nil {
		return n, err
	}
	s.count++

	if s.multiFile {
		err = s.file.Close()
		s.file = nil
		if err != nil {
			return n, fmt.Errorf("could not close output file: %w", err)
		}
	}
	return n, nil
}

// Close implements io.Closer.
func (s *fileSender) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// poolSender hands frames to a pool buffer so that slow output does not hold
// up frame processing. An output routine writes buffered frames to dst.
type poolSender struct {
	dst  io.WriteCloser
	pool *pool.Buffer
	log  logging.Logger
	done chan struct{}
	wg   sync.WaitGroup
}

func newPoolSender(dst io.WriteCloser, l logging.Logger) *poolSender {
	pool.MaxAlloc(mjpeg.DefaultMaxFrameSize)
	s := &poolSender{
		dst:  dst,
		pool: pool.NewBuffer(poolElements, poolElementSize, poolWriteWait),
		log:  l,
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.output()
	return s
}

// output starts the poolSender's data handling routine.
func (s *poolSender) output() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.drain()
			s.log.Info("terminating sender output routine")
			return
		default:
			chunk, err := s.pool.Next(poolReadTimeout)
			switch err {
			case nil:
			case io.EOF, pool.ErrTimeout:
				continue
			default:
				s.log.Error("unexpected error", "error", err.Error())
				continue
			}
			s.send(chunk)
		}
	}
}

// drain writes the frames still held in the pool.
func (s *poolSender) drain() {
	for {
		chunk, err := s.pool.Next(poolDrainWait)
		if err != nil {
			return
		}
		s.send(chunk)
	}
}

func (s *poolSender) send(chunk *pool.Chunk) {
	_, err := s.dst.Write(chunk.Bytes())
	if err != nil {
		s.log.Warning("failed output write", "error", err.Error())
	}
	chunk.Close()
}

// Write implements io.Writer. Each write is one frame.
func (s *poolSender) Write(d []byte) (int, error) {
	n, err := s.pool.Write(d)
	if err != nil {
		s.log.Warning("pool buffer write error", "error", err.Error(), "n", n, "writeSize", len(d))
		return n, err
	}
	s.pool.Flush()
	return n, nil
}

// Close stops the output routine once buffered frames are written, then
// closes dst.
func (s *poolSender) Close() error {
	s.log.Debug("closing sender output routine")
	close(s.done)
	s.wg.Wait()
	s.log.Info("sender output routine closed")
	return s.dst.Close()
}

// discardSender drops every frame.
type discardSender struct{}

func (discardSender) Write(d []byte) (int, error) { return len(d), nil }
func (discardSender) Close() error                { return nil }

// reportWriter reports the size of each successful write.
type reportWriter struct {
	dst    io.WriteCloser
	report func(sent int)
}

func (w *reportWriter) Write(d []byte) (int, error) {
	n, err := w.dst.Write(d)
	if err == nil {
		w.report(n)
	}
	return n, err
}

func (w *reportWriter) Close() error { return w.dst.Close() }
