package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/vidshrink/internal/api/models"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/media"
	"github.com/smazurov/vidshrink/internal/planner"
)

// registerPlanRoutes registers the pure planning operations. None of them
// touch the encoder.
func (s *Server) registerPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "create-plan",
		Method:      http.MethodPost,
		Path:        "/api/plan",
		Summary:     "Plan",
		Description: "Enumerate size, quality and audio presets for a source",
		Tags:        []string{"planning"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *models.PlanRequest) (*models.PlanResponse, error) {
		source, err := resolveSource(input.Body)
		if err != nil {
			return nil, err
		}
		return &models.PlanResponse{Body: planner.BuildPlan(source)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "create-args",
		Method:      http.MethodPost,
		Path:        "/api/args",
		Summary:     "Encoder arguments",
		Description: "Synthesize the encoder argument list for a chosen preset pair",
		Tags:        []string{"planning"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *models.ArgsRequest) (*models.ArgsResponse, error) {
		source, err := resolveSource(input.Body.SourceData)
		if err != nil {
			return nil, err
		}
		target, err := planner.BuildPlan(source).Target(input.Body.VideoPreset, input.Body.AudioPreset)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		opts := s.options.Transcode
		opts.Input = input.Body.Input
		opts.Output = ffmpeg.OutputName(input.Body.Input)
		args, err := ffmpeg.BuildTranscodeArgs(source, target, opts)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return &models.ArgsResponse{Body: models.ArgsData{
			Output: opts.Output,
			Args:   args,
			Target: target,
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "parse-progress",
		Method:      http.MethodPost,
		Path:        "/api/progress",
		Summary:     "Progress",
		Description: "Convert an encoder status line into a completion percentage",
		Tags:        []string{"planning"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *models.ProgressRequest) (*models.ProgressResponse, error) {
		pct, ok := ffmpeg.ParseProgress(input.Body.Line, input.Body.Duration)
		return &models.ProgressResponse{Body: models.ProgressData{Matched: ok, Percent: pct}}, nil
	})
}

// resolveSource parses probe output when given, else uses the record as is.
func resolveSource(in models.SourceData) (media.Format, error) {
	if in.ProbeOutput != "" {
		var acc ffmpeg.PartialFormat
		for line := range strings.Lines(in.ProbeOutput) {
			ffmpeg.ParseLine(strings.TrimRight(line, "\r\n"), &acc)
		}
		if !acc.Complete() {
			return media.Format{}, huma.Error422UnprocessableEntity("probe output describes no playable video")
		}
		return acc.Format(), nil
	}
	if in.Source == nil {
		return media.Format{}, huma.Error422UnprocessableEntity("one of source or probe_output is required")
	}
	if in.Source.Container.Duration <= 0 || in.Source.Video.Width <= 0 || in.Source.Video.Height <= 0 {
		return media.Format{}, huma.Error422UnprocessableEntity("source needs a positive duration and video dimensions")
	}
	return *in.Source, nil
}
