package midi

import (
	"encoding/binary"
	"fmt"
)

const (
	chunkHeaderLen = 8
	headerChunk    = "MThd"
	trackChunk     = "MTrk"
)

// chunk is one raw chunk, header included
type chunk struct {
	typ string
	raw []byte
}

// splitChunks frames a buffer into chunks. Bytes after the last complete
// chunk header (padding some writers leave behind) are returned as tail.
func splitChunks(data []byte) (chunks []chunk, tail []byte, err error) {
	pos := 0
	for len(data)-pos >= chunkHeaderLen {
		typ := string(data[pos : pos+4])
		n := int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		end := pos + chunkHeaderLen + n
		if n < 0 || end > len(data) || end < pos {
			return nil, nil, fmt.Errorf("chunk %q at offset %d: length %d exceeds buffer", typ, pos, n)
		}
		chunks = append(chunks, chunk{typ: typ, raw: data[pos:end]})
		pos = end
	}
	if len(chunks) == 0 || chunks[0].typ != headerChunk {
		return nil, nil, fmt.Errorf("missing %s header chunk", headerChunk)
	}
	if len(chunks[0].raw) < chunkHeaderLen+6 {
		return nil, nil, fmt.Errorf("short %s header chunk", headerChunk)
	}
	return chunks, data[pos:], nil
}

// trackChunks returns only the MTrk chunks, in file order
func trackChunks(chunks []chunk) []chunk {
	var out []chunk
	for _, c := range chunks {
		if c.typ == trackChunk {
			out = append(out, c)
		}
	}
	return out
}
