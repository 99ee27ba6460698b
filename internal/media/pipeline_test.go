package media

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/onebot"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(t.TempDir(), "", zap.NewNop())
	require.NoError(t, err)
	p.retryInitial = time.Millisecond
	p.retryMax = 5 * time.Millisecond
	return p
}

func urlSegment(segType, rawURL string) onebot.Segment {
	return onebot.Segment{
		Type: segType,
		Data: onebot.SegmentData{File: "remote", URL: rawURL},
	}
}

func TestStageAssignsLocalPaths(t *testing.T) {
	p := newTestPipeline(t)
	segs := []onebot.Segment{
		onebot.Text("look:"),
		urlSegment(onebot.ImageSegment, "http://img.example/pic.gif"),
		urlSegment(onebot.VideoSegment, "http://img.example/clip"),
	}

	tasks := p.Stage(1234, segs)
	require.Len(t, tasks, 2)

	wantImg := filepath.Join(p.Dir(), "1234_1.gif")
	wantVid := filepath.Join(p.Dir(), "1234_2.mp4")
	assert.Equal(t, wantImg, tasks[0].Path)
	assert.Equal(t, wantVid, tasks[1].Path)
	assert.Equal(t, 1, tasks[0].Index)
	assert.Equal(t, 2, tasks[1].Index)

	assert.Nil(t, segs[0].Data.LocalPath, "text segments are untouched")
	require.NotNil(t, segs[1].Data.LocalPath)
	assert.Equal(t, wantImg, *segs[1].Data.LocalPath)
	require.NotNil(t, segs[2].Data.LocalPath)
	assert.Equal(t, wantVid, *segs[2].Data.LocalPath)
}

func TestStageInlinePayload(t *testing.T) {
	p := newTestPipeline(t)
	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 8)...)
	payload := base64.StdEncoding.EncodeToString(png)
	segs := []onebot.Segment{{
		Type: onebot.ImageSegment,
		Data: onebot.SegmentData{File: "base64://" + payload},
	}}

	tasks := p.Stage(55, segs)
	require.Len(t, tasks, 1)
	assert.Equal(t, payload, tasks[0].Inline)
	assert.Equal(t, filepath.Join(p.Dir(), "55_0.png"), tasks[0].Path,
		"format comes from sniffing the decoded head")
}

func TestStageSkipsUnfetchableMedia(t *testing.T) {
	p := newTestPipeline(t)
	segs := []onebot.Segment{{
		Type: onebot.ImageSegment,
		Data: onebot.SegmentData{File: "mystery.jpg"},
	}}

	assert.Empty(t, p.Stage(1, segs))
	assert.Nil(t, segs[0].Data.LocalPath)
}

func TestFetchDownload(t *testing.T) {
	body := []byte("jpeg bytes here")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "1_0.jpg")
	err := p.Fetch(context.Background(), Task{Path: dst, URL: srv.URL + "/pic.jpg"})
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchDownloadRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer srv.Close()

	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "2_0.jpg")
	err := p.Fetch(context.Background(), Task{Path: dst, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(got))
}

func TestFetchDownloadGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "3_0.jpg")
	err := p.Fetch(context.Background(), Task{Path: dst, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no file may be left behind")
}

func TestFetchInline(t *testing.T) {
	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "4_0.bin")
	payload := base64.StdEncoding.EncodeToString([]byte("hello media"))

	require.NoError(t, p.Fetch(context.Background(), Task{Path: dst, Inline: payload}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello media", string(got))
}

func TestFetchInlineRestoresPadding(t *testing.T) {
	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "5_0.bin")
	// base64("ab") == "YWI=", some upstreams strip the "=".
	require.NoError(t, p.Fetch(context.Background(), Task{Path: dst, Inline: "YWI"}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(got))
}

func TestFetchInlineRejectsGarbage(t *testing.T) {
	p := newTestPipeline(t)
	dst := filepath.Join(p.Dir(), "6_0.bin")
	err := p.Fetch(context.Background(), Task{Path: dst, Inline: "!!!not base64!!!"})
	require.Error(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

func TestExtFromURL(t *testing.T) {
	cases := []struct {
		rawURL  string
		segType string
		want    string
	}{
		{"http://x/pic.gif?size=big", onebot.ImageSegment, ".gif"},
		{"http://x/download", onebot.ImageSegment, ".jpg"},
		{"http://x/download", onebot.VideoSegment, ".mp4"},
		{"http://x/download", onebot.RecordSegment, ".bin"},
	}
	for i, tc := range cases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			assert.Equal(t, tc.want, extFromURL(tc.rawURL, tc.segType))
		})
	}
}

func TestNewPipelineRejectsBadProxy(t *testing.T) {
	_, err := NewPipeline(t.TempDir(), "://nope", zap.NewNop())
	require.Error(t, err)
}
