package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleForOCRLeavesSmallFrameUntouched(t *testing.T) {
	data := encodeJPEG(t, 200, 100)
	out := downscaleForOCR(data)
	if !bytes.Equal(data, out) {
		t.Error("downscaleForOCR modified a frame already under maxOCRWidth")
	}
}

func TestDownscaleForOCRShrinksWideFrame(t *testing.T) {
	data := encodeJPEG(t, maxOCRWidth+800, 600)
	out := downscaleForOCR(data)

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode downscaled frame: %v", err)
	}
	if w := img.Bounds().Dx(); w != maxOCRWidth {
		t.Errorf("downscaled width = %d, want %d", w, maxOCRWidth)
	}
}

func TestDownscaleForOCRFallsBackOnBadInput(t *testing.T) {
	junk := []byte("not a jpeg")
	out := downscaleForOCR(junk)
	if !bytes.Equal(junk, out) {
		t.Error("downscaleForOCR should return original bytes when decode fails")
	}
}
