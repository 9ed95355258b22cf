// Package decoder turns the audio track of an MP4/M4A file into mono PCM.
//
// Pipeline:
//  1. Parse the container (abema/go-mp4)
//  2. Detect the audio codec from the stsd sample entries
//  3. Decode frames and downmix to mono float32
//     - AAC:  skrashevich/go-aac
//     - Opus: lostromb/concentus
//
// Everything is pure Go, so the monitor runs without CGo.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	gomp4 "github.com/abema/go-mp4"
	concentus "github.com/lostromb/concentus/go/opus"
	aacdecoder "github.com/skrashevich/go-aac/pkg/decoder"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Codec identifies the audio coding format inside a container.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecAAC
	CodecOpus
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecAAC:
		return "aac"
	case CodecOpus:
		return "opus"
	default:
		return "unknown"
	}
}

// Info is the result of probing a container.
type Info struct {
	Codec      Codec
	SampleRate int
	Duration   time.Duration
}

// PCM is decoded mono audio.
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length of the decoded audio.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// Options limits decoding.
type Options struct {
	// MaxDuration stops decoding after this much audio; zero decodes everything.
	MaxDuration time.Duration
	Logger      *slog.Logger
}

// Probe reads container metadata without decoding audio.
func Probe(rs io.ReadSeeker) (Info, error) {
	info, err := gomp4.Probe(rs)
	if err != nil {
		return Info{}, fmt.Errorf("mp4 probe: %w", err)
	}
	codec := detectCodec(rs)
	track, err := findAudioTrack(info, codec)
	if err != nil {
		return Info{Codec: codec}, err
	}

	out := Info{Codec: codec, SampleRate: int(track.Timescale)}
	if track.Timescale > 0 {
		out.Duration = time.Duration(track.Duration) * time.Second / time.Duration(track.Timescale)
	}
	return out, nil
}

// FileProber implements ports.MediaProber for MP4 files on disk.
type FileProber struct{}

// Duration implements ports.MediaProber.
func (FileProber) Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := Probe(f)
	if err != nil {
		return 0, &domain.DecodeError{Path: path, Codec: codecName(info.Codec), Err: err}
	}
	return info.Duration, nil
}

func codecName(c Codec) string {
	if c == CodecUnknown {
		return ""
	}
	return c.String()
}

var _ ports.MediaProber = FileProber{}

// Decode extracts the audio track of rs as mono PCM.
func Decode(rs io.ReadSeeker, opts Options) (*PCM, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	info, err := gomp4.Probe(rs)
	if err != nil {
		return nil, fmt.Errorf("mp4 probe: %w", err)
	}

	codec := detectCodec(rs)
	track, err := findAudioTrack(info, codec)
	if err != nil {
		return nil, err
	}

	d := &frameDecoder{rs: rs, track: track, opts: opts}
	switch codec {
	case CodecAAC:
		return d.aac()
	case CodecOpus:
		return d.opus()
	default:
		return nil, domain.ErrUnsupportedFormat
	}
}

// detectCodec walks the box tree for the audio sample entry. go-mp4's Probe
// only recognizes mp4a, so Opus is found by box type.
func detectCodec(rs io.ReadSeeker) Codec {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown
	}

	codec := CodecUnknown
	_, _ = gomp4.ReadBoxStructure(rs, func(h *gomp4.ReadHandle) (interface{}, error) {
		if codec != CodecUnknown {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMp4a():
			codec = CodecAAC
		case gomp4.BoxTypeOpus():
			codec = CodecOpus
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(),
			gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd():
			// Never expand mdat.
			_, _ = h.Expand()
		}
		return nil, nil
	})
	return codec
}

func findAudioTrack(info *gomp4.ProbeInfo, codec Codec) (*gomp4.Track, error) {
	if codec == CodecAAC {
		for _, t := range info.Tracks {
			if t.Codec == gomp4.CodecMP4A {
				return t, nil
			}
		}
	}
	for _, t := range info.Tracks {
		if t.Codec == gomp4.CodecAVC1 || len(t.Samples) == 0 || len(t.Chunks) == 0 {
			continue
		}
		if isAudioTimescale(t.Timescale) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w (%d tracks)", domain.ErrNoAudioTrack, len(info.Tracks))
}

// isAudioTimescale matches standard sample rates; video tracks use 600, 90000 and so on.
func isAudioTimescale(ts uint32) bool {
	switch ts {
	case 8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000, 88200, 96000:
		return true
	}
	return false
}

type frameDecoder struct {
	rs    io.ReadSeeker
	track *gomp4.Track
	opts  Options
}

// limit returns the sample cap for rate, or -1 when unlimited.
func (d *frameDecoder) limit(rate int) int {
	if d.opts.MaxDuration <= 0 {
		return -1
	}
	return int(d.opts.MaxDuration.Seconds() * float64(rate))
}

// frames reads each sample of the track in file order and hands it to fn
// until fn returns false.
func (d *frameDecoder) frames(fn func(raw []byte) bool) {
	locs := sampleLocations(d.track)
	var largest uint32
	for _, loc := range locs {
		largest = max(largest, loc.size)
	}
	buf := make([]byte, largest)

	for _, loc := range locs {
		if _, err := d.rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
			continue
		}
		raw := buf[:loc.size]
		if _, err := io.ReadFull(d.rs, raw); err != nil {
			continue
		}
		if !fn(raw) {
			return
		}
	}
}

func (d *frameDecoder) aac() (*PCM, error) {
	asc, err := audioSpecificConfig(d.rs)
	if err != nil {
		return nil, err
	}
	dec := aacdecoder.New()
	if err := dec.SetASC(asc); err != nil {
		return nil, fmt.Errorf("set ASC: %w", err)
	}

	rate := int(d.track.Timescale)
	if dec.Config.SampleRate > 0 {
		rate = dec.Config.SampleRate
	}
	channels := max(1, dec.Config.ChanConfig)
	limit := d.limit(rate)

	mono := make([]float32, 0, len(d.track.Samples)*1024)
	skipped := 0
	d.frames(func(raw []byte) bool {
		pcm, err := dec.DecodeFrame(raw)
		if err != nil {
			skipped++
			return true
		}
		mono = downmix(mono, pcm, channels)
		return limit < 0 || len(mono) < limit
	})
	if skipped > 0 {
		d.opts.Logger.Debug("skipped undecodable AAC frames", slog.Int("count", skipped))
	}
	return &PCM{Samples: truncate(mono, limit), SampleRate: rate}, nil
}

func (d *frameDecoder) opus() (*PCM, error) {
	rate := int(d.track.Timescale)
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		rate = 48000
	}

	const channels = 2
	dec, err := concentus.NewOpusDecoder(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	limit := d.limit(rate)

	// 120 ms at 48 kHz is the largest Opus frame.
	const maxFrame = 5760
	pcm16 := make([]int16, maxFrame*channels)
	frame := make([]float32, maxFrame*channels)

	mono := make([]float32, 0, len(d.track.Samples)*960)
	skipped := 0
	d.frames(func(raw []byte) bool {
		// Packets of three bytes or fewer are padding.
		if len(raw) <= 3 {
			return true
		}
		n, err := dec.Decode(raw, 0, len(raw), pcm16, 0, maxFrame, false)
		if err != nil {
			skipped++
			return true
		}
		for i := 0; i < n*channels; i++ {
			frame[i] = float32(pcm16[i]) / 32768
		}
		mono = downmix(mono, frame[:n*channels], channels)
		return limit < 0 || len(mono) < limit
	})
	if skipped > 0 {
		d.opts.Logger.Debug("skipped undecodable Opus frames", slog.Int("count", skipped))
	}
	return &PCM{Samples: truncate(mono, limit), SampleRate: rate}, nil
}

func downmix(dst, interleaved []float32, channels int) []float32 {
	n := len(interleaved) / channels
	for i := 0; i < n; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}

func truncate(s []float32, limit int) []float32 {
	if limit >= 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

// audioSpecificConfig finds the esds DecoderSpecificInfo needed by the AAC decoder.
func audioSpecificConfig(rs io.ReadSeeker) ([]byte, error) {
	stsd := []gomp4.BoxType{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd()}
	paths := []gomp4.BoxPath{
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeMp4a(), gomp4.BoxTypeEsds()),
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeMp4a(), gomp4.BoxTypeWave(), gomp4.BoxTypeEsds()),
		append(append(gomp4.BoxPath{}, stsd...), gomp4.BoxTypeEnca(), gomp4.BoxTypeEsds()),
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	boxes, err := gomp4.ExtractBoxesWithPayload(rs, nil, paths)
	if err != nil {
		return nil, fmt.Errorf("extract esds: %w", err)
	}
	for _, b := range boxes {
		esds, ok := b.Payload.(*gomp4.Esds)
		if !ok {
			continue
		}
		for _, desc := range esds.Descriptors {
			if desc.Tag == gomp4.DecSpecificInfoTag && len(desc.Data) >= 2 {
				return desc.Data, nil
			}
		}
	}
	return nil, errors.New("AudioSpecificConfig not found in esds")
}

type sampleLoc struct {
	offset uint64
	size   uint32
}

// sampleLocations flattens the chunk table into per-sample file offsets.
func sampleLocations(track *gomp4.Track) []sampleLoc {
	out := make([]sampleLoc, 0, len(track.Samples))
	idx := 0
	for _, chunk := range track.Chunks {
		off := chunk.DataOffset
		for j := uint32(0); j < chunk.SamplesPerChunk; j++ {
			if idx >= len(track.Samples) {
				return out
			}
			size := track.Samples[idx].Size
			out = append(out, sampleLoc{offset: off, size: size})
			off += uint64(size)
			idx++
		}
	}
	return out
}
