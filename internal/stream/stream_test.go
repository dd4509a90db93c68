package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

func TestLatest_PublishReplaces(t *testing.T) {
	l := NewLatest()

	_, ok := l.Current()
	assert.False(t, ok)

	l.Publish(biometric.NewFrame([]byte("one")))
	l.Publish(biometric.NewFrame([]byte("two")))

	frame, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, "two", string(frame.Data))

	frame, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "two", string(frame.Data))
}

func TestLatest_NextWaitsForFirstFrame(t *testing.T) {
	l := NewLatest()

	got := make(chan biometric.Frame, 1)
	go func() {
		frame, err := l.Next(context.Background())
		assert.NoError(t, err)
		got <- frame
	}()

	select {
	case <-got:
		t.Fatal("Next returned before a frame was published")
	case <-time.After(20 * time.Millisecond):
	}

	l.Publish(biometric.NewFrame([]byte("first")))

	select {
	case frame := <-got:
		assert.Equal(t, "first", string(frame.Data))
	case <-time.After(time.Second):
		t.Fatal("Next did not return after publish")
	}
}

func TestLatest_WaitSkipsSeenFrames(t *testing.T) {
	l := NewLatest()
	l.Publish(biometric.NewFrame([]byte("one")))

	_, seq, err := l.Wait(context.Background(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = l.Wait(ctx, seq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	l.Publish(biometric.NewFrame([]byte("two")))
	frame, next, err := l.Wait(context.Background(), seq)
	require.NoError(t, err)
	assert.Equal(t, "two", string(frame.Data))
	assert.Greater(t, next, seq)
}

func TestLatest_Close(t *testing.T) {
	l := NewLatest()

	done := make(chan error, 1)
	go func() {
		_, err := l.Next(context.Background())
		done <- err
	}()

	l.Close()
	l.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the reader")
	}

	l.Publish(biometric.NewFrame([]byte("late")))
	_, ok := l.Current()
	assert.False(t, ok)
}

func writeFrames(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	paths := writeFrames(t, t.TempDir(), "a.jpg", "b.jpg")

	src := NewFileSource(paths, false)
	assert.Equal(t, 2, src.Len())

	for _, want := range []string{"a.jpg", "b.jpg"} {
		frame, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(frame.Data))
		assert.NotEqual(t, uuid.Nil, frame.ID)
	}

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSource_Loop(t *testing.T) {
	ctx := context.Background()
	src := NewFileSource(writeFrames(t, t.TempDir(), "a.jpg", "b.jpg"), true)

	var got []string
	for range 5 {
		frame, err := src.Next(ctx)
		require.NoError(t, err)
		got = append(got, string(frame.Data))
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "a.jpg", "b.jpg", "a.jpg"}, got)
}

func TestNewDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "2.jpeg", "1.JPG", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	src, err := NewDirSource(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	frame, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.JPG", string(frame.Data))

	_, err = NewDirSource(t.TempDir(), false)
	assert.Error(t, err)
}

func TestPump_PublishesUntilExhausted(t *testing.T) {
	src := NewFileSource(writeFrames(t, t.TempDir(), "a.jpg", "b.jpg", "c.jpg"), false)
	latest := NewLatest()

	err := Pump(context.Background(), src, latest, time.Millisecond)
	require.NoError(t, err)

	frame, ok := latest.Current()
	require.True(t, ok)
	assert.Equal(t, "c.jpg", string(frame.Data))
}

func TestPump_StopsOnCancel(t *testing.T) {
	src := NewFileSource(writeFrames(t, t.TempDir(), "a.jpg"), true)
	latest := NewLatest()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Pump(ctx, src, latest, 5*time.Millisecond)
	}()

	_, err := latest.Next(context.Background())
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pump did not stop")
	}
}

func TestMJPEGHandler(t *testing.T) {
	latest := NewLatest()
	latest.Publish(biometric.NewFrame([]byte("jpeg-bytes")))
	latest.Close()

	rec := httptest.NewRecorder()
	MJPEGHandler(latest)(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", rec.Header().Get("Content-Type"))
	assert.Equal(t, boundary+"jpeg-bytes\r\n", rec.Body.String())
}

func TestUpdateImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.jpeg")

	require.NoError(t, UpdateImage(path, biometric.NewFrame([]byte("one"))))
	require.NoError(t, UpdateImage(path, biometric.NewFrame([]byte("two"))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
