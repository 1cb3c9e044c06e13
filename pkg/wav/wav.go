// Package wav reads and writes the 8-bit unsigned PCM WAV files produced by
// the voice pipeline. The encoder emits a minimal 44-byte RIFF header followed
// by one byte per sample; the decoder accepts any standard PCM WAV laid out
// that way and rejects everything else, since the pipeline is specialized to
// 8 kHz mono 8-bit audio.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lorolabs/loro/pkg/dsp"
)

const (
	headerSize    = 44
	formatPCM     = 1
	bitsPerSample = 8

	// u8Midpoint is the unsigned 8-bit encoding of silence. Samples are
	// offset around it with a half-scale of 128, the libsndfile convention
	// for PCM_U8.
	u8Midpoint = 128
)

// ErrNotWAV is returned by [Decode] when the input is not a RIFF/WAVE stream.
var ErrNotWAV = errors.New("wav: not a RIFF/WAVE stream")

// ErrUnsupported is returned by [Decode] for WAV files that are not mono
// 8-bit unsigned PCM.
var ErrUnsupported = errors.New("wav: unsupported format")

// Encode writes b to w as a mono 8-bit unsigned PCM WAV file. Samples are
// clamped to [-1, 1] before quantization, so out-of-range input cannot wrap.
func Encode(w io.Writer, b dsp.Buffer) error {
	dataSize := len(b.Samples)
	buf := make([]byte, headerSize+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk: 8-bit mono PCM, byte rate == sample rate.
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(b.Rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(b.Rate))
	binary.LittleEndian.PutUint16(buf[32:34], 1)
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range b.Samples {
		buf[headerSize+i] = encodeU8(s)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wav: write: %w", err)
	}
	return nil
}

// EncodeFile writes b to path as a mono 8-bit unsigned PCM WAV file,
// creating or truncating the file.
func EncodeFile(path string, b dsp.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: create %q: %w", path, err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wav: close %q: %w", path, err)
	}
	return nil
}

// Decode reads a mono 8-bit unsigned PCM WAV stream and returns its samples
// as a [dsp.Buffer]. Chunks other than fmt and data are skipped. Returns
// [ErrNotWAV] for non-WAV input and [ErrUnsupported] for WAV files in any
// other sample format.
func Decode(r io.Reader) (dsp.Buffer, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return dsp.Buffer{}, fmt.Errorf("wav: read header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return dsp.Buffer{}, ErrNotWAV
	}

	var (
		rate      int
		haveFmt   bool
		chunkHead [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunkHead[:]); err != nil {
			if err == io.EOF {
				return dsp.Buffer{}, fmt.Errorf("wav: missing data chunk: %w", io.ErrUnexpectedEOF)
			}
			return dsp.Buffer{}, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(chunkHead[0:4])
		size := binary.LittleEndian.Uint32(chunkHead[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return dsp.Buffer{}, fmt.Errorf("wav: fmt chunk too short: %d bytes", size)
			}
			fmtChunk := make([]byte, size)
			if _, err := io.ReadFull(r, fmtChunk); err != nil {
				return dsp.Buffer{}, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(fmtChunk[0:2])
			channels := binary.LittleEndian.Uint16(fmtChunk[2:4])
			rate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			bits := binary.LittleEndian.Uint16(fmtChunk[14:16])
			if format != formatPCM || channels != 1 || bits != bitsPerSample {
				return dsp.Buffer{}, fmt.Errorf("%w: format=%d channels=%d bits=%d",
					ErrUnsupported, format, channels, bits)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return dsp.Buffer{}, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return dsp.Buffer{}, fmt.Errorf("wav: read data chunk: %w", err)
			}
			samples := make([]float64, len(data))
			for i, v := range data {
				samples[i] = decodeU8(v)
			}
			return dsp.Buffer{Samples: samples, Rate: rate}, nil

		default:
			// Skip unknown chunks, honoring RIFF word alignment.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return dsp.Buffer{}, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}
	}
}

// DecodeFile reads a mono 8-bit unsigned PCM WAV file from path.
func DecodeFile(path string) (dsp.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return dsp.Buffer{}, fmt.Errorf("wav: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// encodeU8 quantizes one sample to unsigned 8-bit PCM.
func encodeU8(s float64) byte {
	v := int(math.Round(dsp.Clamp(s, -1, 1)*u8Midpoint)) + u8Midpoint
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	return byte(v)
}

// decodeU8 expands one unsigned 8-bit PCM sample to a float in [-1, ~0.992].
func decodeU8(v byte) float64 {
	return (float64(v) - u8Midpoint) / u8Midpoint
}
