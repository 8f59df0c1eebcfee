// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal is an append-only file of poll reports.
//
// Each frame is
//
//	tag (1 byte) | uncompressed length (uvarint) | payload length (uvarint) | payload
//
// where the payload is one CBOR-encoded [stats.Report], compressed
// according to tag. A frame is written with a single write call, so a
// crash leaves at most one truncated frame at the tail; [Reader]
// reports it as [io.ErrUnexpectedEOF] after returning every complete
// frame before it.
package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bureau-foundation/rigwatch/lib/codec"
	"github.com/bureau-foundation/rigwatch/lib/stats"
)

// MaxFrameSize bounds both lengths in a frame header. A report is a
// few kilobytes; anything near this is corruption.
const MaxFrameSize = 16 << 20

// Writer appends report frames. Safe for concurrent use.
type Writer struct {
	mu          sync.Mutex
	destination io.Writer
	closer      io.Closer
	compression CompressionTag
}

// Open opens path for appending, creating it if needed.
func Open(path string, compression CompressionTag) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	writer := NewWriter(file, compression)
	writer.closer = file
	return writer, nil
}

// NewWriter returns a Writer that appends frames to destination.
func NewWriter(destination io.Writer, compression CompressionTag) *Writer {
	return &Writer{destination: destination, compression: compression}
}

// Append encodes report and writes it as one frame.
func (w *Writer) Append(report stats.Report) error {
	encoded, err := codec.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	tag := w.compression
	payload, err := compress(encoded, tag)
	if errors.Is(err, errIncompressible) {
		tag, payload = CompressionNone, encoded
	} else if err != nil {
		return err
	}

	frame := make([]byte, 0, 1+2*binary.MaxVarintLen64+len(payload))
	frame = append(frame, byte(tag))
	frame = binary.AppendUvarint(frame, uint64(len(encoded)))
	frame = binary.AppendUvarint(frame, uint64(len(payload)))
	frame = append(frame, payload...)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.destination.Write(frame); err != nil {
		return fmt.Errorf("writing journal frame: %w", err)
	}
	return nil
}

// Close closes the underlying file when the Writer came from Open.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// Reader decodes frames in order.
type Reader struct {
	source *bufio.Reader
}

// NewReader returns a Reader over source.
func NewReader(source io.Reader) *Reader {
	return &Reader{source: bufio.NewReader(source)}
}

// Next returns the next report. It returns io.EOF at a clean end of
// input and io.ErrUnexpectedEOF (wrapped) for a truncated final frame.
func (r *Reader) Next() (stats.Report, error) {
	tagByte, err := r.source.ReadByte()
	if err != nil {
		return stats.Report{}, err
	}
	tag := CompressionTag(tagByte)

	size, err := r.readLength("uncompressed length")
	if err != nil {
		return stats.Report{}, err
	}
	payloadSize, err := r.readLength("payload length")
	if err != nil {
		return stats.Report{}, err
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r.source, payload); err != nil {
		return stats.Report{}, fmt.Errorf("reading frame payload: %w", truncated(err))
	}

	encoded, err := decompress(payload, tag, size)
	if err != nil {
		return stats.Report{}, err
	}
	var report stats.Report
	if err := codec.Unmarshal(encoded, &report); err != nil {
		return stats.Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return report, nil
}

func (r *Reader) readLength(field string) (int, error) {
	value, err := binary.ReadUvarint(r.source)
	if err != nil {
		return 0, fmt.Errorf("reading frame %s: %w", field, truncated(err))
	}
	if value > MaxFrameSize {
		return 0, fmt.Errorf("frame %s %d exceeds %d", field, value, MaxFrameSize)
	}
	return int(value), nil
}

// truncated maps a mid-frame EOF to io.ErrUnexpectedEOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
