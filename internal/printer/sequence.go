package printer

import "bytes"

// CommandSequence is an append-only list of command chunks built up over a
// page lifecycle. It is owned by a single encoder and is not safe for
// concurrent use.
type CommandSequence struct {
	chunks [][]byte
}

// Append adds a copy of chunk to the end of the sequence
func (s *CommandSequence) Append(chunk []byte) {
	s.chunks = append(s.chunks, bytes.Clone(chunk))
}

// AppendString adds an ASCII command
func (s *CommandSequence) AppendString(cmd string) {
	s.chunks = append(s.chunks, []byte(cmd))
}

// Chunks returns the chunks in append order
func (s *CommandSequence) Chunks() [][]byte {
	return s.chunks
}

// Len returns the number of chunks
func (s *CommandSequence) Len() int {
	return len(s.chunks)
}

// Bytes flattens the sequence, putting sep between chunks and trailer after
// the last one
func (s *CommandSequence) Bytes(sep, trailer []byte) []byte {
	var buf bytes.Buffer
	for i, chunk := range s.chunks {
		if i > 0 {
			buf.Write(sep)
		}
		buf.Write(chunk)
	}
	buf.Write(trailer)
	return buf.Bytes()
}
