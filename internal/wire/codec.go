package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's JSON payload length.
const MaxFrameSize = 16 * 1024 * 1024

// ErrFrameTooLarge is returned when a frame's declared length exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// ErrMalformedFrame is returned for a zero-length frame or one whose body
// can't be parsed as an Envelope.
var ErrMalformedFrame = errors.New("wire: malformed frame")

// WriteFrame writes env as a length-prefixed JSON frame to w.
func WriteFrame(w io.Writer, env *Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("wire: encoding envelope: %w", err)
	}
	if len(body) == 0 {
		return ErrMalformedFrame
	}
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: writing length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON frame from r and decodes it.
// It returns io.EOF unmodified when r is exhausted exactly at a frame
// boundary (a clean "no more frames" signal); a partial length prefix is
// reported as io.ErrUnexpectedEOF via the underlying io.ReadFull error.
func ReadFrame(r io.Reader) (*Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("wire: reading length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, ErrMalformedFrame
	}
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("wire: reading frame body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	return &env, nil
}
