// Package portaudio implements [audio.Device] on top of the PortAudio
// blocking stream API. The portaudio C library (libportaudio) must be
// available at link time.
//
// Streams are scoped to each call: Record, Warmup and Play each open their
// own stream and close it before returning, so no hardware handle outlives
// the operation that needed it.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/lorolabs/loro/pkg/audio"
	"github.com/lorolabs/loro/pkg/dsp"
)

// Compile-time assertion that Device satisfies audio.Device.
var _ audio.Device = (*Device)(nil)

const defaultChunkFrames = 1024

// Device is a PortAudio-backed capture and playback device. It initializes
// the PortAudio host API once at construction and terminates it on Close.
// A Device is safe for sequential use; concurrent calls to Record or Play
// contend for the same hardware and are not supported.
type Device struct {
	cfg   audio.Config
	chunk int
}

// Option is a functional option for configuring a Device.
type Option func(*Device)

// WithChunkFrames sets the number of frames transferred per blocking
// read/write. Defaults to 1024.
func WithChunkFrames(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.chunk = n
		}
	}
}

// New initializes the PortAudio host API and returns a Device bound to the
// default input and output devices. The caller must call Close when the
// device is no longer needed.
func New(cfg audio.Config, opts ...Option) (*Device, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.New("portaudio: sample rate must be positive")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize host API: %w", err)
	}

	d := &Device{cfg: cfg, chunk: defaultChunkFrames}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Close terminates the PortAudio host API. The Device must not be used
// afterwards.
func (d *Device) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: terminate host API: %w", err)
	}
	return nil
}

// Record captures the given number of mono samples from the default input
// device and returns them as a float buffer in [-1, 1]. Input overflow is
// tolerated; the affected chunk is kept as delivered. On a read failure the
// samples captured so far are returned alongside the error. Cancelling ctx
// abandons the capture with the partial buffer.
func (d *Device) Record(ctx context.Context, samples int) (dsp.Buffer, error) {
	if samples <= 0 {
		return dsp.Buffer{Rate: d.cfg.SampleRate}, nil
	}

	stream, buf, err := d.openInput(d.cfg.Latency)
	if err != nil {
		return dsp.Buffer{Rate: d.cfg.SampleRate}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return dsp.Buffer{Rate: d.cfg.SampleRate}, fmt.Errorf("portaudio: start input stream: %w", err)
	}
	defer stream.Stop()

	out := make([]float64, 0, samples)
	for len(out) < samples {
		if err := ctx.Err(); err != nil {
			return dsp.Buffer{Samples: out, Rate: d.cfg.SampleRate}, err
		}
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return dsp.Buffer{Samples: out, Rate: d.cfg.SampleRate},
				fmt.Errorf("portaudio: read input stream: %w", err)
		}
		for _, s := range buf {
			if len(out) == samples {
				break
			}
			out = append(out, float64(s))
		}
	}
	return dsp.Buffer{Samples: out, Rate: d.cfg.SampleRate}, nil
}

// Warmup opens a low-latency input stream and discards roughly dur worth of
// samples, letting the hardware settle before a real capture. A zero or
// negative duration is a no-op.
func (d *Device) Warmup(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}

	stream, _, err := d.openInput(audio.LatencyLow)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start warmup stream: %w", err)
	}
	defer stream.Stop()

	remaining := int(float64(d.cfg.SampleRate) * dur.Seconds())
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("portaudio: read warmup stream: %w", err)
		}
		remaining -= d.chunk
	}
	return nil
}

// Play writes the buffer to the default output device and blocks until the
// last chunk has been handed to the hardware. The final partial chunk is
// zero-padded. Output underflow is tolerated.
func (d *Device) Play(ctx context.Context, b dsp.Buffer) error {
	if b.Empty() {
		return nil
	}

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return fmt.Errorf("portaudio: default output device: %w",
			fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err))
	}

	params := d.streamParams(nil, dev, b.Rate)
	buf := make([]float32, d.chunk)
	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output stream: %w",
			fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err))
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start output stream: %w", err)
	}
	defer stream.Stop()

	for offset := 0; offset < len(b.Samples); offset += d.chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range buf {
			buf[i] = 0
			if offset+i < len(b.Samples) {
				buf[i] = float32(b.Samples[offset+i])
			}
		}
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("portaudio: write output stream: %w", err)
		}
	}
	return nil
}

// openInput opens a mono input stream at the requested latency. The returned
// buffer is the chunk PortAudio fills on every Read.
func (d *Device) openInput(latency audio.Latency) (*portaudio.Stream, []float32, error) {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, nil, fmt.Errorf("portaudio: default input device: %w",
			fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err))
	}

	params := d.streamParams(dev, nil, d.cfg.SampleRate)
	if latency == audio.LatencyLow {
		params.Input.Latency = dev.DefaultLowInputLatency
	} else {
		params.Input.Latency = dev.DefaultHighInputLatency
	}

	buf := make([]float32, d.chunk)
	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return nil, nil, fmt.Errorf("portaudio: open input stream: %w",
			fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err))
	}
	return stream, buf, nil
}

// streamParams builds mono stream parameters for the given devices. Exactly
// one of in/out is expected to be non-nil.
func (d *Device) streamParams(in, out *portaudio.DeviceInfo, rate int) portaudio.StreamParameters {
	var params portaudio.StreamParameters
	if in != nil {
		params = portaudio.HighLatencyParameters(in, nil)
		params.Input.Channels = 1
	} else {
		params = portaudio.HighLatencyParameters(nil, out)
		params.Output.Channels = 1
	}
	params.SampleRate = float64(rate)
	params.FramesPerBuffer = d.chunk
	return params
}
