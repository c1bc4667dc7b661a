package thumbnail

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotWebP = errors.New("not a RIFF/WEBP container")

// riffFrameCount walks the chunks of a WebP container and counts ANMF
// (animation frame) chunks. A still image has none and counts as one frame.
//
// Each chunk is a 4-byte FourCC, a little-endian uint32 payload size and the
// payload, padded to an even length.
func riffFrameCount(data []byte) (int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return 0, errNotWebP
	}

	frames := 0
	for off := 12; off < len(data); {
		if len(data)-off < 8 {
			return 0, fmt.Errorf("truncated chunk header at offset %d", off)
		}
		fourcc := string(data[off : off+4])
		size := int64(binary.LittleEndian.Uint32(data[off+4 : off+8]))

		end := int64(off) + 8 + size
		if end > int64(len(data)) {
			return 0, fmt.Errorf("chunk %q at offset %d overruns file", fourcc, off)
		}
		if fourcc == "ANMF" {
			frames++
		}

		if size%2 == 1 {
			end++
		}
		off = int(end)
	}

	if frames == 0 {
		return 1, nil
	}
	return frames, nil
}
