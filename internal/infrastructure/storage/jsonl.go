package storage

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"

	"github.com/temba/backend/pkg/s3select"
)

// JSONLWriter writes records as gzipped JSON lines, tracking what archive
// metadata needs: the record count plus size and MD5 of the compressed bytes.
type JSONLWriter struct {
	counter *countingWriter
	hash    hash.Hash
	gz      *gzip.Writer
	enc     *json.Encoder
	records int
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

// NewJSONLWriter creates a writer over w
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	h := md5.New()
	counter := &countingWriter{w: io.MultiWriter(w, h)}
	gz := gzip.NewWriter(counter)
	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{counter: counter, hash: h, gz: gz, enc: enc}
}

// Write appends a record
func (w *JSONLWriter) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	w.records++
	return nil
}

// Close flushes the compressed stream. Size and Hash are final afterwards.
func (w *JSONLWriter) Close() error {
	return w.gz.Close()
}

// Records returns the number of records written
func (w *JSONLWriter) Records() int {
	return w.records
}

// Size returns the compressed size in bytes
func (w *JSONLWriter) Size() int64 {
	return w.counter.n
}

// Hash returns the hex MD5 of the compressed bytes
func (w *JSONLWriter) Hash() string {
	return hex.EncodeToString(w.hash.Sum(nil))
}

// ReadJSONL decompresses a gzipped JSON lines stream and calls fn for every
// record
func ReadJSONL(ctx context.Context, r io.Reader, fn s3select.RecordFunc) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to decompress records: %w", err)
	}
	defer gz.Close()

	dec := s3select.NewRecordDecoder(fn)
	br := bufio.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if werr := dec.Write(line); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}
	}
	return dec.Flush()
}
