package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yleoer/keepsake/pkg/logger"
)

// silentWAV 生成一段 16 位立体声静音 PCM
func silentWAV(frames int) []byte {
	const (
		channels   = 2
		sampleRate = 44100
		bits       = 16
	)
	dataLen := frames * channels * bits / 8
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataLen))
	b.Write(make([]byte, dataLen))
	return b.Bytes()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/audio/tone.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(silentWAV(4410))
	})
	mux.HandleFunc("/api/audio/empty.mp3", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/audio/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not audio"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadDecodesTrack(t *testing.T) {
	srv := newTestServer(t)
	d := NewDevice(srv.Client(), 0.7, logger.Nop())

	s, err := d.Load(context.Background(), srv.URL+"/api/audio/tone.wav")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	st, ok := s.(*stream)
	if !ok {
		t.Fatalf("Expected *stream, got %T", s)
	}
	if st.format.SampleRate != 44100 || st.streamer.Len() != 4410 {
		t.Errorf("Unexpected format %+v with %d frames", st.format, st.streamer.Len())
	}
	select {
	case <-s.Done():
		t.Error("Expected Done to stay open before playback")
	default:
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
	if err := s.Play(context.Background()); err == nil {
		t.Error("Expected play after close to fail")
	}
}

func TestLoadFailures(t *testing.T) {
	srv := newTestServer(t)
	d := NewDevice(srv.Client(), 1, logger.Nop())

	for _, p := range []string{"/api/audio/missing.mp3", "/api/audio/empty.mp3", "/api/audio/notes.txt"} {
		if _, err := d.Load(context.Background(), srv.URL+p); err == nil {
			t.Errorf("Load(%s): expected error, got nil", p)
		}
	}
}

func TestLoadSlowBodyOutlivesHeaderTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/audio/slow.wav", func(w http.ResponseWriter, r *http.Request) {
		data := silentWAV(4410)
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(data[:64])
		w.(http.Flusher).Flush()
		time.Sleep(200 * time.Millisecond)
		w.Write(data[64:])
	})
	mux.HandleFunc("/api/audio/stuck.wav", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(silentWAV(10))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	d := NewDevice(NewHTTPClient(50*time.Millisecond), 1, logger.Nop())

	s, err := d.Load(context.Background(), srv.URL+"/api/audio/slow.wav")
	if err != nil {
		t.Fatalf("Expected slow body to load, got %v", err)
	}
	if n := s.(*stream).streamer.Len(); n != 4410 {
		t.Errorf("Expected 4410 frames, got %d", n)
	}
	s.Close()

	if _, err := d.Load(context.Background(), srv.URL+"/api/audio/stuck.wav"); err == nil {
		t.Error("Expected missing response headers to time out, got nil")
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"http://h/api/audio/A%20-%20One.mp3", "", ".mp3"},
		{"http://h/api/audio/song.FLAC", "", ".flac"},
		{"http://h/stream", "audio/mpeg", ".mp3"},
		{"http://h/stream", "audio/ogg; codecs=vorbis", ".ogg"},
		{"http://h/stream", "text/plain", ""},
	}
	for _, tt := range tests {
		if got := formatOf(tt.url, tt.contentType); got != tt.want {
			t.Errorf("formatOf(%q, %q): expected %q, got %q", tt.url, tt.contentType, tt.want, got)
		}
	}
}
