package s3select

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// RecordFunc is called for each record a query returns. Returning an error
// stops the iteration and the error is returned to the caller.
type RecordFunc func(record map[string]any) error

// ErrStop can be returned by a RecordFunc to end an iteration early. Callers
// check for it with errors.Is.
var ErrStop = errors.New("s3select: stop iteration")

// SelectAPI is the part of the S3 client used to run select queries
type SelectAPI interface {
	SelectObjectContent(ctx context.Context, params *s3.SelectObjectContentInput, optFns ...func(*s3.Options)) (*s3.SelectObjectContentOutput, error)
}

// NewSelectInput builds the request for querying a gzipped JSON lines object
func NewSelectInput(bucket, key, sql string) *s3.SelectObjectContentInput {
	return &s3.SelectObjectContentInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Expression:     aws.String(sql),
		ExpressionType: types.ExpressionTypeSql,
		InputSerialization: &types.InputSerialization{
			CompressionType: types.CompressionTypeGzip,
			JSON:            &types.JSONInput{Type: types.JSONTypeLines},
		},
		OutputSerialization: &types.OutputSerialization{
			JSON: &types.JSONOutput{RecordDelimiter: aws.String("\n")},
		},
	}
}

// SelectObjectRecords runs sql against the given object and streams every
// returned record to fn.
func SelectObjectRecords(ctx context.Context, client SelectAPI, bucket, key, sql string, fn RecordFunc) error {
	out, err := client.SelectObjectContent(ctx, NewSelectInput(bucket, key, sql))
	if err != nil {
		return fmt.Errorf("failed to select from s3://%s/%s: %w", bucket, key, err)
	}

	stream := out.GetStream()
	defer stream.Close()

	dec := NewRecordDecoder(fn)
	for event := range stream.Events() {
		records, ok := event.(*types.SelectObjectContentEventStreamMemberRecords)
		if !ok {
			continue
		}
		if err := dec.Write(records.Value.Payload); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("error reading select stream for s3://%s/%s: %w", bucket, key, err)
	}
	return dec.Flush()
}

// RecordDecoder splits a stream of payload chunks into newline delimited JSON
// records. Chunk boundaries don't have to align with record boundaries.
type RecordDecoder struct {
	fn      RecordFunc
	pending []byte
	count   int
}

// NewRecordDecoder creates a decoder that calls fn for every complete record
func NewRecordDecoder(fn RecordFunc) *RecordDecoder {
	return &RecordDecoder{fn: fn}
}

// Write consumes a chunk of payload
func (d *RecordDecoder) Write(chunk []byte) error {
	d.pending = append(d.pending, chunk...)

	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			return nil
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]

		if err := d.emit(line); err != nil {
			return err
		}
	}
}

// Flush emits any final record not terminated by a newline
func (d *RecordDecoder) Flush() error {
	line := d.pending
	d.pending = nil
	return d.emit(line)
}

// Count returns the number of records emitted so far
func (d *RecordDecoder) Count() int {
	return d.count
}

func (d *RecordDecoder) emit(line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	record := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return fmt.Errorf("invalid record JSON: %w", err)
	}
	d.count++
	return d.fn(record)
}
