package thumbnail

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// stillWebP is a 1×1 lossless WebP.
const stillWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func stillWebPBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(stillWebP)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return data
}

// animatedWebP assembles a RIFF container with a VP8X header, an ANIM chunk
// and the given number of ANMF frames. Frame payloads have odd length so the
// padding byte is exercised.
func animatedWebP(frames int) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")

	chunk := func(fourcc string, payload []byte) {
		body.WriteString(fourcc)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(payload)))
		body.Write(payload)
		if len(payload)%2 == 1 {
			body.WriteByte(0)
		}
	}

	vp8x := make([]byte, 10)
	vp8x[0] = 0x02 // animation flag
	chunk("VP8X", vp8x)
	chunk("ANIM", make([]byte, 6))
	for i := 0; i < frames; i++ {
		chunk("ANMF", make([]byte, 17))
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func tinyGIF(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	anim := &gif.GIF{
		Image: []*image.Paletted{
			image.NewPaletted(image.Rect(0, 0, 4, 4), pal),
			image.NewPaletted(image.Rect(0, 0, 4, 4), pal),
		},
		Delay: []int{10, 10},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// decodeCentre decodes an encoded image, checks it is size×size and returns
// the colour of its centre pixel.
func decodeCentre(t *testing.T, data []byte, size int) color.NRGBA {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		t.Fatalf("thumbnail is %dx%d, want %dx%d", b.Dx(), b.Dy(), size, size)
	}
	return color.NRGBAModel.Convert(img.At(b.Min.X+size/2, b.Min.Y+size/2)).(color.NRGBA)
}

// near reports whether two colours match within JPEG tolerance.
func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	const tol = 12
	return d(a.R, b.R) <= tol && d(a.G, b.G) <= tol && d(a.B, b.B) <= tol
}
