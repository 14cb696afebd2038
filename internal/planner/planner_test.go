package planner

import (
	"math"
	"testing"

	"github.com/smazurov/vidshrink/internal/media"
)

func scenarioSource() media.Format {
	return media.Format{
		Container: media.ContainerFormat{Duration: 120, Start: 0},
		Video: media.VideoFormat{
			Codec: "h264", Color: "yuv420p",
			Width: 1920, Height: 1080, Bitrate: 4000, FPS: 30,
		},
		Audio: &media.AudioFormat{
			Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 192,
		},
	}
}

func TestEstimateBitrateReferenceTable(t *testing.T) {
	tests := []struct {
		crf  float64
		want float64
	}{
		{28, 2520},
		{21, 3360},
		{18, 3930},
		{12, 5890},
	}
	for _, tt := range tests {
		got := EstimateBitrate(1280, 720, 30, tt.crf)
		if rounded := math.Round(got/10) * 10; math.Abs(rounded-tt.want) > 10 {
			t.Errorf("crf %v: bitrate %.1f (rounded %v), want %v", tt.crf, got, rounded, tt.want)
		}
	}
}

func TestEstimateBitrateMonotonic(t *testing.T) {
	base := EstimateBitrate(1280, 720, 30, 21)
	tests := []struct {
		name   string
		got    float64
		larger bool
	}{
		{"more pixels", EstimateBitrate(1920, 1080, 30, 21), true},
		{"fewer pixels", EstimateBitrate(640, 360, 30, 21), false},
		{"higher frame rate", EstimateBitrate(1280, 720, 60, 21), true},
		{"lower frame rate", EstimateBitrate(1280, 720, 15, 21), false},
		{"higher crf", EstimateBitrate(1280, 720, 30, 28), false},
		{"lower crf", EstimateBitrate(1280, 720, 30, 18), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.got > base) != tt.larger {
				t.Errorf("got %.1f against base %.1f, larger=%v", tt.got, base, tt.larger)
			}
		})
	}
	if got := EstimateBitrate(0, 720, 30, 21); got != 0 {
		t.Errorf("zero width estimate = %v", got)
	}
}

func TestCreateResolution(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		fps         float64
		boxW, boxH  int
		wantW       int
		wantH       int
		wantFPS     float64
	}{
		{"downscale 1080p into 720p", 1920, 1080, 30, 1280, 720, 1280, 720, 30},
		{"aspect preserved in 480p box", 1920, 1080, 30, 854, 480, 854, 480, 30},
		{"no upscale", 640, 360, 30, 1280, 720, 640, 360, 30},
		{"odd source rounded even", 641, 361, 25, 1280, 720, 642, 362, 25},
		{"portrait bounded by height", 1080, 1920, 30, 1280, 720, 406, 720, 30},
		{"60 fps halved", 1920, 1080, 60, 1280, 720, 1280, 720, 30},
		{"50 fps halved", 1920, 1080, 50, 1280, 720, 1280, 720, 25},
		{"120 fps quartered", 1920, 1080, 120, 1280, 720, 1280, 720, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := media.Format{Video: media.VideoFormat{Width: tt.w, Height: tt.h, FPS: tt.fps}}
			got := CreateResolution(src, tt.boxW, tt.boxH, DefaultFPS)
			if got.Width != tt.wantW || got.Height != tt.wantH || got.FPS != tt.wantFPS {
				t.Errorf("got %dx%d@%v, want %dx%d@%v", got.Width, got.Height, got.FPS, tt.wantW, tt.wantH, tt.wantFPS)
			}
			if got.ExpectedWidth != tt.boxW || got.ExpectedHeight != tt.boxH {
				t.Errorf("bounding box = %dx%d", got.ExpectedWidth, got.ExpectedHeight)
			}
		})
	}
}

func TestCreateResolutionEvenAndBounded(t *testing.T) {
	for w := 100; w <= 2000; w += 77 {
		for h := 100; h <= 2000; h += 91 {
			src := media.Format{Video: media.VideoFormat{Width: w, Height: h, FPS: 30}}
			for _, r := range Ladder {
				got := CreateResolution(src, r.Width, r.Height, r.FPS)
				if got.Width%2 != 0 || got.Height%2 != 0 {
					t.Fatalf("%dx%d in %s: odd output %dx%d", w, h, r.Name(), got.Width, got.Height)
				}
				// Even rounding may add at most one pixel.
				if got.Width > w+1 || got.Height > h+1 {
					t.Fatalf("%dx%d in %s: upscaled to %dx%d", w, h, r.Name(), got.Width, got.Height)
				}
			}
		}
	}
}

func TestResolutionsCollapseToLowestRung(t *testing.T) {
	src := media.Format{Video: media.VideoFormat{Width: 640, Height: 360, FPS: 30}}
	got := Resolutions(src)
	if len(got) != 1 {
		t.Fatalf("got %d resolutions, want 1: %+v", len(got), got)
	}
	if got[0].ExpectedHeight != 360 {
		t.Errorf("kept the %dp box, want 360p", got[0].ExpectedHeight)
	}
}

func TestSizeOptionsScenario(t *testing.T) {
	src := scenarioSource()
	opts := SizeOptions(src)
	if len(opts) != len(Budgets) {
		t.Fatalf("got %d options, want %d", len(opts), len(Budgets))
	}

	small := opts[0]
	if small.Preset != "size_8mb" || small.Implausible {
		t.Fatalf("8mb option = %+v", small)
	}
	if small.Width != 640 || small.Height != 360 {
		t.Errorf("8mb rung = %dx%d, want 640x360", small.Width, small.Height)
	}
	unclamped := EstimateBitrate(640, 360, 30, SharpCRF)
	if small.Bitrate >= unclamped {
		t.Errorf("bitrate %.1f not below the unclamped estimate %.1f", small.Bitrate, unclamped)
	}
	if math.Abs(small.Bitrate-307.2) > 0.01 {
		t.Errorf("bitrate = %.2f, want 307.2", small.Bitrate)
	}
	if small.ExpectedSize > 8000 {
		t.Errorf("expected size %.0f KB over budget", small.ExpectedSize)
	}

	wantRungs := []int{360, 480, 720}
	for i, o := range opts {
		if o.Height != wantRungs[i] {
			t.Errorf("%s rung = %dp, want %dp", o.Preset, o.Height, wantRungs[i])
		}
		if o.RateControl() == nil {
			t.Errorf("%s carries no rate control", o.Preset)
		}
	}
}

func TestSizeOptionsExpectedSizeNonDecreasing(t *testing.T) {
	for _, duration := range []float64{10, 60, 120, 600, 1800} {
		src := scenarioSource()
		src.Container.Duration = duration
		opts := SizeOptions(src)
		for i := 1; i < len(opts); i++ {
			if opts[i].ExpectedSize < opts[i-1].ExpectedSize {
				t.Errorf("duration %v: %s (%.0f KB) smaller than %s (%.0f KB)", duration,
					opts[i].Preset, opts[i].ExpectedSize, opts[i-1].Preset, opts[i-1].ExpectedSize)
			}
		}
	}
}

func TestSizeOptionsImplausibleIffNothingFits(t *testing.T) {
	for _, duration := range []float64{5, 30, 120, 300, 900, 3600} {
		for _, withAudio := range []bool{true, false} {
			src := scenarioSource()
			src.Container.Duration = duration
			if !withAudio {
				src.Audio = nil
			}
			audioKB := sourceAudioKB(src)
			for i, o := range SizeOptions(src) {
				fits := false
				for _, res := range Resolutions(src) {
					if EstimateSize(res, duration, FitCRF) <= Budgets[i].KB-audioKB {
						fits = true
					}
				}
				if o.Implausible == fits {
					t.Errorf("duration %v audio %v %s: implausible=%v but fits=%v",
						duration, withAudio, o.Preset, o.Implausible, fits)
				}
			}
		}
	}
}

func TestSizeOptionsAudioExceedsBudget(t *testing.T) {
	src := scenarioSource()
	src.Container.Duration = 3600 // 192 kbit/s of audio alone is 86400 KB
	for _, o := range SizeOptions(src) {
		if !o.Implausible {
			t.Errorf("%s should be implausible", o.Preset)
		}
	}
}

func TestSizeOptionsKeepsOriginal(t *testing.T) {
	src := media.Format{
		Container: media.ContainerFormat{Duration: 10},
		Video: media.VideoFormat{
			Codec: "h264", Color: "yuv420p", Width: 640, Height: 360,
			Bitrate: 500, FPS: 30, Original: true,
		},
	}
	for _, o := range SizeOptions(src) {
		if !o.Original || o.Bitrate != 500 || o.ExpectedSize != 625 {
			t.Errorf("%s = %+v, want the untouched source", o.Preset, o)
		}
	}
}

// passthroughSource is already in the delivery format at the 360p rung and
// too large for the smallest budget once its audio is accounted for.
func passthroughSource(recorded bool) media.Format {
	src := media.Format{
		Container: media.ContainerFormat{Duration: 120},
		Video: media.VideoFormat{
			Codec: "h264", Color: "yuv420p", Width: 640, Height: 360,
			Bitrate: 500, FPS: 30,
		},
		Audio: &media.AudioFormat{
			Codec: "aac", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 256,
		},
	}
	if recorded {
		src.Video.ExpectedSize = 7500
		src.Audio.ExpectedSize = 3840
	}
	return src
}

func TestSizeOptionsOriginalIncludesAudio(t *testing.T) {
	for _, recorded := range []bool{true, false} {
		opts := SizeOptions(passthroughSource(recorded))
		if opts[0].Original || !opts[0].Implausible {
			t.Errorf("recorded=%v: size_8mb = %+v, want an implausible re-encode", recorded, opts[0])
		}
		for _, o := range opts[1:] {
			if !o.Original || o.ExpectedSize != 11340 {
				t.Errorf("recorded=%v: %s original=%v expected=%.0f, want original at 11340 KB",
					recorded, o.Preset, o.Original, o.ExpectedSize)
			}
		}
		for i := 1; i < len(opts); i++ {
			if opts[i].ExpectedSize < opts[i-1].ExpectedSize {
				t.Errorf("recorded=%v: %s (%.0f KB) smaller than %s (%.0f KB)", recorded,
					opts[i].Preset, opts[i].ExpectedSize, opts[i-1].Preset, opts[i-1].ExpectedSize)
			}
		}
	}
}

func TestQualityOptionsOriginalIncludesAudio(t *testing.T) {
	for _, recorded := range []bool{true, false} {
		opts := QualityOptions(passthroughSource(recorded))
		if len(opts) != 1 {
			t.Fatalf("recorded=%v: got %d options, want the single 360p rung", recorded, len(opts))
		}
		o := opts[0]
		if o.Preset != "quality_360p" || !o.Original || o.ExpectedSize != 11340 {
			t.Errorf("recorded=%v: %+v, want quality_360p original at 11340 KB", recorded, o)
		}
	}
}

func TestQualityOptions(t *testing.T) {
	opts := QualityOptions(scenarioSource())
	want := []string{"quality_360p", "quality_480p", "quality_720p"}
	if len(opts) != len(want) {
		t.Fatalf("got %d options, want %d", len(opts), len(want))
	}
	for i, o := range opts {
		if o.Preset != want[i] {
			t.Errorf("option %d preset = %q, want %q", i, o.Preset, want[i])
		}
		if o.Implausible || o.CRF != QualityCRF || o.Bitrate != 0 {
			t.Errorf("%s = %+v", o.Preset, o)
		}
		if i > 0 && o.ExpectedSize <= opts[i-1].ExpectedSize {
			t.Errorf("%s not larger than %s", o.Preset, opts[i-1].Preset)
		}
	}
}

func TestAudioOptions(t *testing.T) {
	tests := []struct {
		name         string
		audio        *media.AudioFormat
		wantPresets  []string
		wantOriginal bool
	}{
		{"silent source", nil, []string{AudioNone}, false},
		{"aac kept", &media.AudioFormat{Codec: "aac", SampleRate: 44100, ChannelSetup: "stereo", Bitrate: 192},
			[]string{AudioNone, AudioBitrateLow, AudioBitrateHigh}, true},
		{"loud aac re-encoded", &media.AudioFormat{Codec: "aac", SampleRate: 48000, ChannelSetup: "5.1", Bitrate: 384},
			[]string{AudioNone, AudioBitrateLow, AudioBitrateHigh}, false},
		{"other codec re-encoded", &media.AudioFormat{Codec: "opus", SampleRate: 48000, ChannelSetup: "stereo", Bitrate: 96},
			[]string{AudioNone, AudioBitrateLow, AudioBitrateHigh}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := scenarioSource()
			src.Audio = tt.audio
			got := AudioOptions(src)
			if len(got) != len(tt.wantPresets) {
				t.Fatalf("got %d options, want %d", len(got), len(tt.wantPresets))
			}
			for i, p := range tt.wantPresets {
				if got[i].Preset != p {
					t.Errorf("option %d = %q, want %q", i, got[i].Preset, p)
				}
			}
			last := got[len(got)-1]
			if len(got) > 1 && last.Original != tt.wantOriginal {
				t.Errorf("high preset original = %v, want %v", last.Original, tt.wantOriginal)
			}
		})
	}
}

func TestBuildPlanDoesNotModifySource(t *testing.T) {
	src := scenarioSource()
	plan := BuildPlan(src)
	plan.Source.Audio.Bitrate = 1
	if src.Audio.Bitrate != 192 {
		t.Error("plan shares the source audio record")
	}
}

func TestPlanTarget(t *testing.T) {
	plan := BuildPlan(scenarioSource())

	target, err := plan.Target("size_8mb", AudioBitrateHigh)
	if err != nil {
		t.Fatal(err)
	}
	if target.Video.Preset != "size_8mb" || target.Audio == nil || target.Audio.Bitrate != 192 {
		t.Errorf("target = %+v", target)
	}
	if target.Container.Duration != 120 {
		t.Errorf("target covers %v s", target.Container.Duration)
	}

	silent, err := plan.Target("quality_480p", "")
	if err != nil {
		t.Fatal(err)
	}
	if silent.Audio != nil {
		t.Errorf("default audio preset kept audio: %+v", silent.Audio)
	}

	if _, err := plan.Target("size_1gb", ""); err == nil {
		t.Error("unknown video preset accepted")
	}
	if _, err := plan.Target("size_8mb", "lossless"); err == nil {
		t.Error("unknown audio preset accepted")
	}
}
