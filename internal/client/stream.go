package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

// Stream is a pull cursor over the frames of one streamed action:
//
//	st, err := bot.DownloadFileStream(ctx, DownloadStreamOptions{FileID: id})
//	if err != nil { ... }
//	defer st.Close()
//	for st.Next(ctx) {
//		chunk := st.Current()
//		...
//	}
//	if err := st.Err(); err != nil { ... }
//
// Frames arrive on a bounded buffer; a stream that stalls longer than
// the idle gap fails with ErrStreamIdle.
type Stream struct {
	c      *Correlator
	echo   string
	action string
	idle   time.Duration

	frames chan streamFrame
	gone   chan struct{}
	once   sync.Once

	cur  *onebot.StreamData
	err  error
	done bool
}

// Stream sends an action whose reply is a sequence of frames sharing
// one echo, terminated by a completion marker.
func (c *Correlator) Stream(action string, params any, idle time.Duration) (*Stream, error) {
	echo := uuid.NewString()
	w := &waiter{
		frames: make(chan streamFrame, streamBuffer),
		gone:   make(chan struct{}),
	}
	c.register(echo, w)
	if err := c.send(payload{Action: action, Params: params, Echo: echo}); err != nil {
		c.remove(echo)
		metrics.ActionsTotal.WithLabelValues(action, "send_error").Inc()
		return nil, err
	}
	return &Stream{
		c:      c,
		echo:   echo,
		action: action,
		idle:   idle,
		frames: w.frames,
		gone:   w.gone,
	}, nil
}

// Next advances to the following frame. It returns false once the
// stream completes, fails, or sits idle past the configured gap; Err
// distinguishes the three.
func (s *Stream) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	timer := time.NewTimer(s.idle)
	defer timer.Stop()
	select {
	case f := <-s.frames:
		switch {
		case f.err != nil:
			s.stop(fmt.Errorf("%s: %w", s.action, f.err))
			return false
		case f.end:
			metrics.ActionsTotal.WithLabelValues(s.action, "ok").Inc()
			s.stop(nil)
			return false
		default:
			s.cur = f.data
			return true
		}
	case <-timer.C:
		s.stop(fmt.Errorf("%s: %w", s.action, ErrStreamIdle))
		return false
	case <-ctx.Done():
		s.stop(ctx.Err())
		return false
	case <-s.c.done:
		s.stop(ErrClosed)
		return false
	}
}

// Current returns the frame Next last advanced to.
func (s *Stream) Current() *onebot.StreamData { return s.cur }

// Err returns nil after a clean completion and the terminating error
// otherwise.
func (s *Stream) Err() error { return s.err }

// Close abandons the stream. Frames still in flight for its echo are
// dropped. Safe to call after Next returned false.
func (s *Stream) Close() { s.stop(s.err) }

func (s *Stream) stop(err error) {
	if !s.done {
		s.done = true
		s.err = err
		if err != nil {
			metrics.ActionsTotal.WithLabelValues(s.action, "error").Inc()
		}
	}
	s.once.Do(func() { close(s.gone) })
	s.c.remove(s.echo)
}

// DownloadStreamOptions selects the file to pull chunk by chunk. One of
// File and FileID identifies it; ChunkSize 0 uses the upstream default.
type DownloadStreamOptions struct {
	File      string
	FileID    string
	ChunkSize int
	// OutFormat converts voice records during download ("mp3", "wav").
	// Only meaningful for DownloadRecordStream.
	OutFormat string
}

const defaultChunkSize = 65536

type downloadStreamParams struct {
	File      string `json:"file,omitempty"`
	FileID    string `json:"file_id,omitempty"`
	ChunkSize int    `json:"chunk_size"`
	OutFormat string `json:"out_format,omitempty"`
}

func (o DownloadStreamOptions) params() downloadStreamParams {
	size := o.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	return downloadStreamParams{File: o.File, FileID: o.FileID, ChunkSize: size, OutFormat: o.OutFormat}
}

// DownloadFileStream pulls a file as base64 chunks.
func (c *Client) DownloadFileStream(opts DownloadStreamOptions) (*Stream, error) {
	return c.corr.Stream("download_file_stream", opts.params(), c.timeout)
}

// DownloadRecordStream pulls a voice record, optionally converted.
func (c *Client) DownloadRecordStream(opts DownloadStreamOptions) (*Stream, error) {
	return c.corr.Stream("download_file_record_stream", opts.params(), c.timeout)
}

// DownloadImageStream pulls an image as base64 chunks.
func (c *Client) DownloadImageStream(opts DownloadStreamOptions) (*Stream, error) {
	return c.corr.Stream("download_file_image_stream", opts.params(), c.timeout)
}

// TestDownloadStream exercises the streaming path end to end. With
// fail set, the upstream answers with an error frame.
func (c *Client) TestDownloadStream(fail bool) (*Stream, error) {
	params := struct {
		Error bool `json:"error"`
	}{fail}
	return c.corr.Stream("test_download_stream", params, c.timeout)
}

// UploadChunk is one piece of a chunked file upload. Chunks of one
// upload share a caller-chosen StreamID.
type UploadChunk struct {
	StreamID       string
	ChunkData      string
	ChunkIndex     *int
	TotalChunks    *int
	FileSize       *int64
	ExpectedSHA256 string
	IsComplete     *bool
	Filename       string
	Reset          *bool
	VerifyOnly     *bool
	// FileRetention is how long the upstream keeps the assembled file,
	// in milliseconds. 0 uses the default of five minutes.
	FileRetention int
}

// UploadFileStream sends one chunk of a chunked upload. Unlike the
// download side each chunk is an ordinary call with its own response.
func (c *Client) UploadFileStream(ctx context.Context, chunk UploadChunk) (*onebot.Response, error) {
	retention := chunk.FileRetention
	if retention <= 0 {
		retention = 300000
	}
	params := struct {
		StreamID       string `json:"stream_id"`
		ChunkData      string `json:"chunk_data,omitempty"`
		ChunkIndex     *int   `json:"chunk_index,omitempty"`
		TotalChunks    *int   `json:"total_chunks,omitempty"`
		FileSize       *int64 `json:"file_size,omitempty"`
		ExpectedSHA256 string `json:"expected_sha256,omitempty"`
		IsComplete     *bool  `json:"is_complete,omitempty"`
		Filename       string `json:"filename,omitempty"`
		Reset          *bool  `json:"reset,omitempty"`
		VerifyOnly     *bool  `json:"verify_only,omitempty"`
		FileRetention  int    `json:"file_retention"`
	}{
		StreamID:       chunk.StreamID,
		ChunkData:      chunk.ChunkData,
		ChunkIndex:     chunk.ChunkIndex,
		TotalChunks:    chunk.TotalChunks,
		FileSize:       chunk.FileSize,
		ExpectedSHA256: chunk.ExpectedSHA256,
		IsComplete:     chunk.IsComplete,
		Filename:       chunk.Filename,
		Reset:          chunk.Reset,
		VerifyOnly:     chunk.VerifyOnly,
		FileRetention:  retention,
	}
	return c.call(ctx, "upload_file_stream", params)
}

// CleanStreamTempFile removes leftover temp files of aborted chunked
// transfers on the upstream host.
func (c *Client) CleanStreamTempFile(ctx context.Context) error {
	_, err := c.call(ctx, "clean_stream_temp_file", struct{}{})
	return err
}
