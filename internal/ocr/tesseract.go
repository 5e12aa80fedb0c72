package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/nfnt/resize"

	recerr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// maxOCRWidth bounds the image handed to the OCR binary. Frames captured on
// large/HiDPI displays otherwise dominate OCR wall-clock for no accuracy
// gain; downscaling keeps per-frame OCR cost roughly constant across
// display sizes.
const maxOCRWidth = 1600

// TesseractEngine shells out to a Tesseract-compatible OCR binary,
// discovered on PATH, and parses its TSV output into WordRecords. It does
// not implement recognition itself; it is subprocess plumbing and output
// parsing only.
type TesseractEngine struct {
	binaryPath string
	timeout    time.Duration
}

// NewTesseractEngine resolves binaryPath (or "tesseract" on PATH). Returns
// an error if the binary cannot be found — a startup-time fatal condition
// for the OCR modality.
func NewTesseractEngine(binaryPath string) (*TesseractEngine, error) {
	if binaryPath == "" {
		binaryPath = "tesseract"
	}
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("ocr binary not found on PATH: %w", err)
	}
	return &TesseractEngine{binaryPath: resolved, timeout: 10 * time.Second}, nil
}

// Extract writes imageData to a temp file and runs the OCR binary against
// it with TSV output, producing the per-word record shape Section 4.3 of
// the recording engine design specifies.
func (e *TesseractEngine) Extract(ctx context.Context, imageData []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "ocr-frame-*.jpg")
	if err != nil {
		return Result{}, fmt.Errorf("create temp frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(downscaleForOCR(imageData)); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("write temp frame file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp frame file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binaryPath, tmp.Name(), "stdout", "tsv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, recerr.Decode(err, "ocr binary failed").WithField("stderr", stderr.String())
	}

	return parseTSV(stdout.String()), nil
}

// downscaleForOCR decodes a JPEG frame and, if wider than maxOCRWidth,
// resizes it down before re-encoding. Decode/resize failures fall back to
// the original bytes — OCR on a full-size frame beats no OCR at all.
func downscaleForOCR(data []byte) []byte {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("ocr downscale: decode failed, using original frame", "error", err)
		return data
	}
	if img.Bounds().Dx() <= maxOCRWidth {
		return data
	}

	resized := resize.Resize(maxOCRWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		slog.Debug("ocr downscale: encode failed, using original frame", "error", err)
		return data
	}
	return buf.Bytes()
}

// parseTSV parses Tesseract's TSV output format:
// level  page_num  block_num  par_num  line_num  word_num  left  top  width  height  conf  text
func parseTSV(output string) Result {
	var words []WordRecord
	var texts []string

	scanner := bufio.NewScanner(strings.NewReader(output))
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue // header row
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		wr := WordRecord{
			Level:    atoiSafe(fields[0]),
			PageNum:  atoiSafe(fields[1]),
			BlockNum: atoiSafe(fields[2]),
			ParNum:   atoiSafe(fields[3]),
			LineNum:  atoiSafe(fields[4]),
			WordNum:  atoiSafe(fields[5]),
			Left:     atoiSafe(fields[6]),
			Top:      atoiSafe(fields[7]),
			Width:    atoiSafe(fields[8]),
			Height:   atoiSafe(fields[9]),
			Conf:     atofSafe(fields[10]),
			Text:     text,
		}
		words = append(words, wr)
		texts = append(texts, text)
	}

	return Result{Text: strings.Join(texts, " "), Words: words}
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atofSafe(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
