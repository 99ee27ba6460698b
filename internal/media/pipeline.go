// Package media side-loads message attachments into the local media
// directory: remote URLs are downloaded with retry, inline base64
// payloads are decoded in chunks.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

const (
	base64Prefix = "base64://"

	// downloadChunk is the copy buffer for remote fetches; inlineChunk
	// is how much base64 text is decoded at a time and must stay a
	// multiple of 4.
	downloadChunk = 8 * 1024
	inlineChunk   = 1 << 20

	// sniffLen is how many decoded bytes format detection needs.
	sniffLen = 262

	// defaultRetryInitial/defaultRetryMax bound the backoff between
	// download attempts; defaultMaxRetries is on top of the first
	// attempt.
	defaultRetryInitial = 2 * time.Second
	defaultRetryMax     = 10 * time.Second
	defaultMaxRetries   = 2
)

// Task is one staged side-load: either URL or Inline is set.
type Task struct {
	// Index of the segment inside its message.
	Index int
	// Path is the destination file.
	Path string
	// URL is the remote source for inbound media.
	URL string
	// Inline is the base64 payload (prefix stripped) for self-sent media.
	Inline string
}

// Pipeline stages and fetches media for journaled messages.
type Pipeline struct {
	dir    string
	client *http.Client
	log    *zap.Logger

	retryInitial time.Duration
	retryMax     time.Duration
	maxRetries   uint64
}

// NewPipeline creates the media directory and the shared HTTP client.
// proxy, when non-empty, routes all downloads.
func NewPipeline(dir, proxy string, log *zap.Logger) (*Pipeline, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &Pipeline{
		dir: dir,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		log:          log,
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
		maxRetries:   defaultMaxRetries,
	}, nil
}

// Dir returns the media root.
func (p *Pipeline) Dir() string { return p.dir }

// Stage assigns each fetchable media segment its destination path,
// sets local_path in place, and returns the tasks to fetch. The
// journal writes the message after staging so records point at the
// intended file even while the fetch is still running.
func (p *Pipeline) Stage(messageID int64, segs []onebot.Segment) []Task {
	var tasks []Task
	for i := range segs {
		seg := &segs[i]
		if !seg.HasMedia() {
			continue
		}
		switch {
		case strings.HasPrefix(seg.Data.File, base64Prefix):
			payload := seg.Data.File[len(base64Prefix):]
			dst := p.filePath(messageID, i, sniffExt(payload))
			seg.Data.LocalPath = &dst
			tasks = append(tasks, Task{Index: i, Path: dst, Inline: payload})
		case seg.Data.URL != "":
			dst := p.filePath(messageID, i, extFromURL(seg.Data.URL, seg.Type))
			seg.Data.LocalPath = &dst
			tasks = append(tasks, Task{Index: i, Path: dst, URL: seg.Data.URL})
		default:
			p.log.Warn("media segment has no fetchable source",
				zap.Int64("message_id", messageID),
				zap.Int("index", i),
				zap.String("segment_type", seg.Type))
		}
	}
	return tasks
}

// Fetch materializes one staged task. On any failure the partial file
// is removed so a journaled local_path never points at garbage.
func (p *Pipeline) Fetch(ctx context.Context, t Task) error {
	var err error
	if t.Inline != "" {
		err = p.writeInline(t)
	} else {
		err = p.download(ctx, t)
	}
	if err != nil {
		metrics.MediaDownloads.WithLabelValues("failed").Inc()
		if rmErr := os.Remove(t.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			p.log.Warn("failed to remove partial media file",
				zap.String("path", t.Path), zap.Error(rmErr))
		}
		return err
	}
	metrics.MediaDownloads.WithLabelValues("ok").Inc()
	return nil
}

func (p *Pipeline) download(ctx context.Context, t Task) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.retryInitial
	policy.MaxInterval = p.retryMax
	policy.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		if err := p.fetchOnce(ctx, t); err != nil {
			p.log.Warn("media download attempt failed",
				zap.String("url", t.URL),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, p.maxRetries), ctx))
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", t.URL, err)
	}
	return nil
}

func (p *Pipeline) fetchOnce(ctx context.Context, t Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return backoff.Permanent(err)
	}
	buf := make([]byte, downloadChunk)
	written, err := io.CopyBuffer(f, resp.Body, buf)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	metrics.MediaBytes.Add(float64(written))
	return nil
}

func (p *Pipeline) writeInline(t Task) error {
	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	var written int64
	payload := t.Inline
	for off := 0; off < len(payload); off += inlineChunk {
		end := off + inlineChunk
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[off:end]
		if end == len(payload) {
			// Some upstreams strip the trailing padding.
			if m := len(chunk) % 4; m != 0 {
				chunk += strings.Repeat("=", 4-m)
			}
		}
		raw, err := base64.StdEncoding.DecodeString(chunk)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to decode inline media: %w", err)
		}
		n, err := f.Write(raw)
		if err != nil {
			f.Close()
			return err
		}
		written += int64(n)
	}
	if err := f.Close(); err != nil {
		return err
	}
	metrics.MediaBytes.Add(float64(written))
	return nil
}

func (p *Pipeline) filePath(messageID int64, index int, ext string) string {
	return filepath.Join(p.dir, fmt.Sprintf("%d_%d%s", messageID, index, ext))
}

func extFromURL(raw, segType string) string {
	if u, err := url.Parse(raw); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}
	switch segType {
	case onebot.ImageSegment:
		return ".jpg"
	case onebot.VideoSegment:
		return ".mp4"
	}
	return ".bin"
}

// sniffExt detects the format of an inline payload from its first
// decoded bytes. Unknown formats fall back to .bin.
func sniffExt(payload string) string {
	need := base64.StdEncoding.EncodedLen(sniffLen)
	if need > len(payload) {
		need = len(payload)
	}
	need -= need % 4
	if need == 0 {
		return ".bin"
	}
	head, err := base64.StdEncoding.DecodeString(payload[:need])
	if err != nil || len(head) == 0 {
		return ".bin"
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ".bin"
	}
	return "." + kind.Extension
}
