package sampling

import (
	"github.com/gtank/merlin"
	"github.com/zeebo/blake3"
)

// TranscriptSource is a [Source] whose randomness is bound to a labelled
// merlin transcript: every value depends on all the messages appended so
// far. It is used to derive public randomness (e.g. the uniform component of
// a public key) from a protocol transcript.
type TranscriptSource struct {
	stream
	t     *merlin.Transcript
	label []byte
}

// NewTranscriptSource returns a [TranscriptSource] over a new transcript
// with the given domain separator.
func NewTranscriptSource(domain string) *TranscriptSource {
	s := &TranscriptSource{t: merlin.NewTranscript(domain), label: []byte("rnsfhe-sample")}
	s.stream.r = transcriptReader{s}
	return s
}

// Append absorbs a labelled message in the transcript.
func (s *TranscriptSource) Append(label string, message []byte) {
	s.t.AppendMessage([]byte(label), message)
}

type transcriptReader struct {
	s *TranscriptSource
}

func (r transcriptReader) Read(p []byte) (int, error) {
	copy(p, r.s.t.ExtractBytes(r.s.label, len(p)))
	return len(p), nil
}

// DeriveKey derives a 32-byte sub-key for the given purpose from a master
// secret with the blake3 key derivation function.
func DeriveKey(master []byte, purpose string) (key []byte) {
	key = make([]byte, 32)
	blake3.DeriveKey("rnsfhe 2024 "+purpose, master, key)
	return
}
