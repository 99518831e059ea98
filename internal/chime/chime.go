// Package chime plays a short tone when a death is counted.
package chime

import (
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Notifier plays the death cue.
type Notifier interface {
	// Play starts the cue and returns immediately.
	Play()
	Close() error
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) Play()        {}
func (Nop) Close() error { return nil }

// Player plays a sine tone on an audio output. Only one tone plays at a time;
// Play calls made while one is playing are dropped.
type Player struct {
	tone    []float32
	frames  int
	playing atomic.Bool
	wg      sync.WaitGroup

	// write plays samples and blocks until they were handed to the device.
	write func(samples []float32) error
	close func() error
}

// Options describes the tone and the output device.
type Options struct {
	SampleRate int
	Frequency  float64
	Duration   time.Duration
	Volume     float32
	Device     string // substring of the output device name; empty uses the default
}

// DefaultOptions returns a short high beep.
func DefaultOptions() Options {
	return Options{
		SampleRate: DefaultSampleRate,
		Frequency:  DefaultFrequency,
		Duration:   DefaultDuration,
		Volume:     DefaultVolume,
	}
}

// New opens the audio output.
func New(opts Options) (*Player, error) {
	opts = opts.withDefaults()
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := openStream(opts, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	p := &Player{
		tone:   Tone(opts.Frequency, opts.Duration, opts.SampleRate, opts.Volume),
		frames: framesPerBuffer,
	}
	p.write = func(samples []float32) error {
		if err := stream.Start(); err != nil {
			return err
		}
		defer stream.Stop()
		for off := 0; off < len(samples); off += len(buf) {
			n := copy(buf, samples[off:])
			clear(buf[n:])
			if err := stream.Write(); err != nil {
				return err
			}
		}
		return nil
	}
	p.close = func() error {
		err := stream.Close()
		_ = portaudio.Terminate()
		return err
	}
	return p, nil
}

func openStream(opts Options, buf []float32) (*portaudio.Stream, error) {
	if opts.Device == "" {
		return portaudio.OpenDefaultStream(0, 1, float64(opts.SampleRate), len(buf), buf)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	dev := pickDevice(devices, opts.Device)
	if dev == nil {
		slog.Warn("chime device not found, using default output", "device", opts.Device)
		return portaudio.OpenDefaultStream(0, 1, float64(opts.SampleRate), len(buf), buf)
	}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(opts.SampleRate),
		FramesPerBuffer: len(buf),
	}
	return portaudio.OpenStream(params, buf)
}

// pickDevice returns the first output device whose name contains name,
// ignoring case.
func pickDevice(devices []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	name = strings.ToLower(name)
	for _, dev := range devices {
		if dev.MaxOutputChannels < 1 {
			continue
		}
		if strings.Contains(strings.ToLower(dev.Name), name) {
			return dev
		}
	}
	return nil
}

// Play starts the tone in the background unless one is already playing.
func (p *Player) Play() {
	if !p.playing.CompareAndSwap(false, true) {
		slog.Debug("chime already playing")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.playing.Store(false)
		if err := p.write(p.tone); err != nil {
			slog.Warn("chime playback failed", "error", err)
		}
	}()
}

// Close waits for a playing tone and releases the output.
func (p *Player) Close() error {
	p.wg.Wait()
	if p.close == nil {
		return nil
	}
	return p.close()
}

// Tone renders a sine wave with a short linear fade at both ends so it
// does not click.
func Tone(freq float64, d time.Duration, sampleRate int, volume float32) []float32 {
	n := int(d.Seconds() * float64(sampleRate))
	if n <= 0 {
		return nil
	}
	fade := min(n/2, sampleRate/200)
	out := make([]float32, n)
	for i := range out {
		v := float32(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))) * volume
		switch {
		case fade > 0 && i < fade:
			v *= float32(i) / float32(fade)
		case fade > 0 && i >= n-fade:
			v *= float32(n-1-i) / float32(fade)
		}
		out[i] = v
	}
	return out
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleRate <= 0 {
		o.SampleRate = d.SampleRate
	}
	if o.Frequency <= 0 {
		o.Frequency = d.Frequency
	}
	if o.Duration <= 0 {
		o.Duration = d.Duration
	}
	if o.Volume <= 0 || o.Volume > 1 {
		o.Volume = d.Volume
	}
	return o
}
