package ffmpeg

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/smazurov/vidshrink/internal/media"
)

func indexOf(args []string, flag string) int {
	return slices.Index(args, flag)
}

func source() media.Format {
	return media.Format{
		Container: media.ContainerFormat{Duration: 120},
		Video: media.VideoFormat{
			Codec: "h264", Color: "yuv420p", Width: 1920, Height: 1080, Bitrate: 4000, FPS: 30,
		},
		Audio: &media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 192},
	}
}

func options() TranscodeOptions {
	return TranscodeOptions{Input: "clip.mov", Output: OutputName("clip.mov")}
}

func TestBuildTranscodeArgsSizeTarget(t *testing.T) {
	src := source()
	audio := *src.Audio
	target := media.Format{
		Container: src.Container,
		Video: media.VideoFormat{
			Preset: "size_8mb", Codec: "h264", Color: "yuv420p",
			Width: 640, Height: 360, Bitrate: 307.2, FPS: 30,
		},
		Audio: &audio,
	}

	got, err := BuildTranscodeArgs(src, target, options())
	if err != nil {
		t.Fatalf("BuildTranscodeArgs: %v", err)
	}
	want := []string{
		"-hide_banner", "-y",
		"-sn", "-dn",
		"-i", "clip.mov",
		"-pix_fmt", "yuv420p", "-sws_flags", "lanczos", "-s", "640x360",
		"-c:v", "libx264", "-preset", "medium", "-profile:v", "high", "-b:v", "307k",
		"-c:a", "copy",
		"-f", "mp4", "-movflags", "+faststart", "output clip.mov",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildTranscodeArgsVideo(t *testing.T) {
	tests := []struct {
		name    string
		source  func(*media.Format)
		target  func(*media.Format)
		opts    func(*TranscodeOptions)
		present [][]string
		absent  []string
	}{
		{
			name:    "crf target",
			target:  func(f *media.Format) { f.Video.Bitrate = 0; f.Video.CRF = 21 },
			present: [][]string{{"-crf", "21"}},
			absent:  []string{"-b:v"},
		},
		{
			name:    "crf wins over bitrate",
			target:  func(f *media.Format) { f.Video.CRF = 21 },
			present: [][]string{{"-crf", "21"}},
			absent:  []string{"-b:v"},
		},
		{
			name:    "frame rate reduced",
			source:  func(f *media.Format) { f.Video.FPS = 60 },
			present: [][]string{{"-r", "30"}},
		},
		{
			name:   "same size not rescaled",
			target: func(f *media.Format) { f.Video.Width, f.Video.Height = 1920, 1080 },
			absent: []string{"-s"},
		},
		{
			name:    "encoder and preset override",
			opts:    func(o *TranscodeOptions) { o.VideoEncoder = "h264_v4l2m2m"; o.Preset = "veryfast" },
			present: [][]string{{"-c:v", "h264_v4l2m2m"}, {"-preset", "veryfast"}},
		},
		{
			name:    "trimmed window",
			source:  func(f *media.Format) { f.Container.Start = 1.5; f.Container.Duration = 10 },
			target:  func(f *media.Format) { f.Container.Start = 3.5; f.Container.Duration = 4 },
			present: [][]string{{"-ss", "2.000"}, {"-t", "4.000"}},
		},
		{
			name:   "full window not trimmed",
			target: func(f *media.Format) { f.Container.Duration = 500 },
			absent: []string{"-ss", "-t"},
		},
		{
			name:    "no audio target",
			target:  func(f *media.Format) { f.Audio = nil },
			present: [][]string{{"-an", "-sn"}},
			absent:  []string{"-c:a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source()
			if tt.source != nil {
				tt.source(&src)
			}
			target := src.Clone()
			target.Video = media.VideoFormat{Codec: "h264", Color: "yuv420p", Width: 1280, Height: 720, Bitrate: 2500, FPS: 30}
			if tt.target != nil {
				tt.target(&target)
			}
			opts := options()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			args, err := BuildTranscodeArgs(src, target, opts)
			if err != nil {
				t.Fatalf("BuildTranscodeArgs: %v", err)
			}
			for _, pair := range tt.present {
				i := indexOf(args, pair[0])
				if i < 0 || i+1 >= len(args) || args[i+1] != pair[1] {
					t.Errorf("missing %q in %q", pair, args)
				}
			}
			for _, flag := range tt.absent {
				if indexOf(args, flag) >= 0 {
					t.Errorf("unexpected %q in %q", flag, args)
				}
			}
			if i, j := indexOf(args, "-i"), indexOf(args, "-c:v"); i > j {
				t.Errorf("input options after output options: %q", args)
			}
		})
	}
}

func TestBuildTranscodeArgsAudio(t *testing.T) {
	tests := []struct {
		name  string
		audio media.AudioFormat
		opts  func(*TranscodeOptions)
		want  []string
	}{
		{
			name:  "identical stream copied",
			audio: media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 192},
			want:  []string{"-c:a", "copy"},
		},
		{
			name:  "higher target bitrate still copied",
			audio: media.AudioFormat{Codec: "AAC", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 256},
			want:  []string{"-c:a", "copy"},
		},
		{
			name:  "low stereo gets he v2",
			audio: media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 32},
			want:  []string{"-ar", "48000", "-c:a", "libfdk_aac", "-b:a", "32k", "-ac", "2", "-profile:a", "aac_he_v2"},
		},
		{
			name:  "resampled stream re-encoded",
			audio: media.AudioFormat{Codec: "aac", SampleRate: 44100, ChannelSetup: "stereo", Bitrate: 128},
			want:  []string{"-ar", "44100", "-c:a", "libfdk_aac", "-b:a", "128k", "-ac", "2"},
		},
		{
			name:  "native encoder has no he profiles",
			audio: media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 32},
			opts:  func(o *TranscodeOptions) { o.AudioEncoder = "aac" },
			want:  []string{"-ar", "48000", "-c:a", "aac", "-b:a", "32k", "-ac", "2"},
		},
		{
			name:  "zero bitrate means no audio",
			audio: media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source()
			target := src.Clone()
			target.Video.Bitrate = 1000
			target.Audio = &tt.audio
			opts := options()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			args, err := BuildTranscodeArgs(src, target, opts)
			if err != nil {
				t.Fatalf("BuildTranscodeArgs: %v", err)
			}
			// Audio options sit between the video options and the muxer options.
			start := indexOf(args, "-b:v") + 2
			end := indexOf(args, "-f")
			got := args[start:end]
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("audio args = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHEProfile(t *testing.T) {
	tests := []struct {
		channels string
		bitrate  float64
		want     string
	}{
		{"stereo", 32, "aac_he_v2"},
		{"stereo", 48, "aac_he_v2"},
		{"stereo", 64, "aac_he"},
		{"stereo", 72, "aac_he"},
		{"stereo", 96, ""},
		{"mono", 48, "aac_he"},
		{"mono", 72, "aac_he"},
		{"mono", 96, ""},
		{"5.1", 64, "aac_he"},
	}
	for _, tt := range tests {
		a := media.AudioFormat{ChannelSetup: tt.channels, Bitrate: tt.bitrate}
		if got := heProfile(a); got != tt.want {
			t.Errorf("heProfile(%s, %v) = %q, want %q", tt.channels, tt.bitrate, got, tt.want)
		}
	}
}

func TestBuildTranscodeArgsErrors(t *testing.T) {
	tests := []struct {
		name   string
		target func(*media.Format)
		want   error
		detail string
	}{
		{"vp9 video", func(f *media.Format) { f.Video.Codec = "vp9" }, ErrUnsupportedVideoCodec, `"vp9"`},
		{"opus audio", func(f *media.Format) { f.Audio.Codec = "opus" }, ErrUnsupportedAudioCodec, `"opus"`},
		{"no rate control", func(f *media.Format) { f.Video.Bitrate, f.Video.CRF = 0, 0 }, ErrMissingRateControl, "size_8mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source()
			target := src.Clone()
			target.Video.Preset = "size_8mb"
			target.Audio.Bitrate = 96
			tt.target(&target)

			args, err := BuildTranscodeArgs(src, target, options())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if args != nil {
				t.Errorf("args returned on error: %q", args)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not name %s", err, tt.detail)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("clip.mov"); got != "output clip.mov" {
		t.Errorf("OutputName = %q", got)
	}
}
