/*
DESCRIPTION
  lex.go provides Lexer, which splits an MJPEG stream (concatenated JPEG
  images) into one write per image.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mjpeg provides a lexer for MJPEG streams.
package mjpeg

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// JPEG markers.
const (
	markerPrefix = 0xff
	markerSOI    = 0xd8 // Start of image.
	markerEOI    = 0xd9 // End of image.
)

// DefaultMaxFrameSize is the largest image a Lexer will buffer by default.
const DefaultMaxFrameSize = 16 << 20

var soi = []byte{markerPrefix, markerSOI}

// ErrFrameTooLarge is returned when an image grows past the lexer's limit
// before its end marker is found.
var ErrFrameTooLarge = errors.New("mjpeg: frame exceeds maximum size")

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// Lexer splits MJPEG streams. The zero value is usable; a nil Log discards
// debug output.
type Lexer struct {
	Log          logging.Logger
	MaxFrameSize int // Zero means DefaultMaxFrameSize.
}

// Lex reads JPEG images from src and writes each, start and end markers
// included, to dst in a single write. Successive writes are performed not
// earlier than delay apart. Images embedded in an image, such as EXIF
// thumbnails, are kept within their parent. Lex returns io.ErrUnexpectedEOF
// once src is exhausted, whether or not that happens between images.
func (l *Lexer) Lex(dst io.Writer, src io.Reader, delay time.Duration) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	max := l.MaxFrameSize
	if max <= 0 {
		max = DefaultMaxFrameSize
	}

	r := bufio.NewReader(src)
	for {
		buf := make([]byte, 2, 4<<10)
		_, err := io.ReadFull(r, buf)
		switch err {
		case nil:
		case io.EOF:
			return io.ErrUnexpectedEOF
		default:
			return err
		}
		if !bytes.Equal(buf, soi) {
			return errors.Errorf("mjpeg: not JPEG frame start: %#v", buf)
		}

		depth := 1
		var last byte
		for depth > 0 {
			b, err := r.ReadByte()
			if err != nil {
				if err == io.EOF {
					return io.ErrUnexpectedEOF
				}
				return errors.Wrap(err, "mjpeg: could not read frame")
			}
			buf = append(buf, b)
			if len(buf) > max {
				return ErrFrameTooLarge
			}

			if last == markerPrefix {
				switch b {
				case markerSOI:
					depth++
				case markerEOI:
					depth--
				}
			}
			last = b
		}

		<-tick
		l.debug("writing frame", "len(buf)", len(buf))
		_, err = dst.Write(buf)
		if err != nil {
			return errors.Wrap(err, "mjpeg: could not write frame")
		}
	}
}

func (l *Lexer) debug(msg string, args ...interface{}) {
	if l.Log != nil {
		l.Log.Debug(msg, args...)
	}
}
