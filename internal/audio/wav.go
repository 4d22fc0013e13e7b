// SPDX-License-Identifier: MIT
/*
Package audio reads and writes mono integer PCM in WAV containers.

Writer is the sample sink of the synthesis pipeline. It accepts one code at a
time and hands fixed-size blocks to the go-audio encoder, so at most one block
of samples is held in memory. Reader is the matching sample source; it yields
samples in file order and reports exhaustion with io.EOF.

8-bit WAV data is unsigned on disk. Both sides convert to and from the signed
range so callers always see codes centred on zero.
*/
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"timbre/internal/pcm"
)

const (
	// DefaultSampleRate is the fixed container rate of the reference pipeline.
	DefaultSampleRate = 44100
	// DefaultBitDepth is the fixed container width of the reference pipeline.
	DefaultBitDepth = 16
	// Channels is fixed: every file is mono.
	Channels = 1
	// DefaultBlockSize is the number of samples handed to the encoder per write.
	DefaultBlockSize = 1024

	wavFormatPCM = 1
	uint8Offset  = 128
)

// Format describes the fixed header fields of a mono PCM file.
type Format struct {
	SampleRate int
	BitDepth   int
}

// DefaultFormat is mono, 16-bit signed integer PCM at 44.1 kHz.
var DefaultFormat = Format{SampleRate: DefaultSampleRate, BitDepth: DefaultBitDepth}

// Writer streams mono samples into a WAV file.
type Writer struct {
	format  Format
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer // Reusable block for the encoder
	n       int              // samples accepted so far
}

// Create opens path for writing and prepares a WAV encoder for format.
func Create(path string, format Format, blockSize int) (*Writer, error) {
	if !pcm.IsSupported(format.BitDepth) {
		return nil, fmt.Errorf("%w: %d", pcm.ErrUnsupportedBitDepth, format.BitDepth)
	}
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", format.SampleRate)
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &Writer{
		format:  format,
		file:    file,
		encoder: wav.NewEncoder(file, format.SampleRate, format.BitDepth, Channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitDepth,
			Data:           make([]int, 0, blockSize),
		},
	}, nil
}

// WriteSample appends one signed code. The block is flushed to the encoder
// when full.
func (w *Writer) WriteSample(code int) error {
	if w.encoder == nil {
		return errors.New("write on closed wav writer")
	}
	if w.format.BitDepth == 8 {
		code += uint8Offset
	}
	w.buf.Data = append(w.buf.Data, code)
	w.n++
	if len(w.buf.Data) == cap(w.buf.Data) {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.buf.Data) == 0 {
		return nil
	}
	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write wav block: %w", err)
	}
	w.buf.Data = w.buf.Data[:0]
	return nil
}

// Samples returns the number of samples accepted so far.
func (w *Writer) Samples() int {
	return w.n
}

// Close flushes the pending block, finalizes the headers and closes the file.
// It is safe to call Close more than once.
func (w *Writer) Close() error {
	if w.encoder == nil {
		return nil
	}

	// An empty file still needs its data chunk header.
	var err error
	if w.n == 0 {
		err = w.encoder.Write(w.buf)
	} else {
		err = w.flush()
	}
	if cerr := w.encoder.Close(); err == nil {
		err = cerr
	}
	w.encoder = nil

	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// Reader reads mono samples back from a WAV file.
type Reader struct {
	format  Format
	file    *os.File
	decoder *wav.Decoder
	buf     *audio.IntBuffer
	pos     int // next unread index in buf.Data
	n       int // valid samples in buf.Data
	eof     bool
}

// Open validates the WAV header of path and prepares it for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	if decoder.NumChans != Channels {
		file.Close()
		return nil, fmt.Errorf("expected mono WAV file, %s has %d channels", path, decoder.NumChans)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		file.Close()
		return nil, fmt.Errorf("expected integer PCM, %s has format %d", path, decoder.WavAudioFormat)
	}
	if !pcm.IsSupported(int(decoder.BitDepth)) {
		file.Close()
		return nil, fmt.Errorf("%w: %d", pcm.ErrUnsupportedBitDepth, decoder.BitDepth)
	}

	return &Reader{
		format: Format{
			SampleRate: int(decoder.SampleRate),
			BitDepth:   int(decoder.BitDepth),
		},
		file:    file,
		decoder: decoder,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: Channels, SampleRate: int(decoder.SampleRate)},
			Data:   make([]int, DefaultBlockSize),
		},
	}, nil
}

// Format returns the header fields of the file being read.
func (r *Reader) Format() Format {
	return r.format
}

// ReadSample returns the next signed code, or io.EOF once the data is exhausted.
func (r *Reader) ReadSample() (int, error) {
	if r.pos >= r.n {
		if r.eof {
			return 0, io.EOF
		}
		n, err := r.decoder.PCMBuffer(r.buf)
		if err != nil {
			return 0, fmt.Errorf("failed to read wav data: %w", err)
		}
		if n == 0 {
			r.eof = true
			return 0, io.EOF
		}
		r.pos, r.n = 0, n
	}

	code := r.buf.Data[r.pos]
	r.pos++
	if r.format.BitDepth == 8 {
		code -= uint8Offset
	}
	return code, nil
}

// ReadAll drains the remaining samples into memory.
func (r *Reader) ReadAll() ([]int, error) {
	var samples []int
	for {
		code, err := r.ReadSample()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
		samples = append(samples, code)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadFile is a convenience for Open, ReadAll and Close.
func ReadFile(path string) ([]int, Format, error) {
	r, err := Open(path)
	if err != nil {
		return nil, Format{}, err
	}
	defer r.Close()

	samples, err := r.ReadAll()
	if err != nil {
		return nil, Format{}, err
	}
	return samples, r.Format(), nil
}
