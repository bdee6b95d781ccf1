package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Feed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "single complete frame",
			chunks: []string{"data: {\"type\":\"text\"}\n"},
			want:   []string{`{"type":"text"}`},
		},
		{
			name:   "frame split mid line",
			chunks: []string{"data: {\"ty", "pe\":\"done\"}\n"},
			want:   []string{`{"type":"done"}`},
		},
		{
			name:   "frame split at the prefix",
			chunks: []string{"da", "ta: hello\n"},
			want:   []string{"hello"},
		},
		{
			name:   "newline arrives alone",
			chunks: []string{"data: hello", "\n"},
			want:   []string{"hello"},
		},
		{
			name:   "two frames in one chunk",
			chunks: []string{"data: one\n\ndata: two\n"},
			want:   []string{"one", "two"},
		},
		{
			name:   "crlf line endings",
			chunks: []string{"data: one\r\n"},
			want:   []string{"one"},
		},
		{
			name:   "no space after colon",
			chunks: []string{"data:compact\n"},
			want:   []string{"compact"},
		},
		{
			name:   "non data lines ignored",
			chunks: []string{"event: message\n: comment\nretry: 500\ndata: kept\n"},
			want:   []string{"kept"},
		},
		{
			name:   "empty data line ignored",
			chunks: []string{"data:\ndata: \ndata: x\n"},
			want:   []string{"x"},
		},
		{
			name:   "byte at a time",
			chunks: strings.Split("data: ab\n", ""),
			want:   []string{"ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var dec Decoder
			var got []string
			for _, chunk := range tt.chunks {
				got = append(got, dec.Feed([]byte(chunk))...)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecoder_TrailingPartialStaysBuffered(t *testing.T) {
	t.Parallel()

	var dec Decoder
	got := dec.Feed([]byte("data: complete\ndata: partial"))

	assert.Equal(t, []string{"complete"}, got)
	assert.Equal(t, len("data: partial"), dec.Buffered())
}

func TestFrames(t *testing.T) {
	t.Parallel()

	t.Run("yields all frames in order", func(t *testing.T) {
		t.Parallel()

		r := strings.NewReader("data: a\n\ndata: b\n\ndata: c\n")
		var got []string
		for frame, err := range Frames(r) {
			require.NoError(t, err)
			got = append(got, frame)
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("trailing partial is discarded at EOF", func(t *testing.T) {
		t.Parallel()

		r := strings.NewReader("data: whole\ndata: cut-off")
		var got []string
		for frame, err := range Frames(r) {
			require.NoError(t, err)
			got = append(got, frame)
		}
		assert.Equal(t, []string{"whole"}, got)
	})

	t.Run("read error is yielded", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		r := io.MultiReader(strings.NewReader("data: first\n"), errReader{err: boom})

		var frames []string
		var gotErr error
		for frame, err := range Frames(r) {
			if err != nil {
				gotErr = err
				break
			}
			frames = append(frames, frame)
		}
		assert.Equal(t, []string{"first"}, frames)
		require.ErrorIs(t, gotErr, boom)
	})

	t.Run("consumer may stop early", func(t *testing.T) {
		t.Parallel()

		r := strings.NewReader("data: a\ndata: b\ndata: c\n")
		var got []string
		for frame, err := range Frames(r) {
			require.NoError(t, err)
			got = append(got, frame)
			if len(got) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"a", "b"}, got)
	})
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
