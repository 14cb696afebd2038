package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/smazurov/vidshrink/internal/media"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(title string, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// sizeKB renders a size in kilobytes the way file managers do.
func sizeKB(kb float64) string {
	if kb <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(kb * 1000))
}

func kbps(v float64) string {
	if v <= 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(v, 1) + " kb/s"
}

func dimensions(w, h int) string {
	if w <= 0 || h <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func videoRate(v media.VideoFormat) string {
	switch rc := v.RateControl().(type) {
	case media.ConstantQuality:
		return fmt.Sprintf("crf %s", humanize.Ftoa(rc.CRF))
	case media.ConstantBitrate:
		return kbps(rc.Kbps)
	default:
		return "-"
	}
}

func notes(implausible, original bool) string {
	var n []string
	if original {
		n = append(n, "source kept")
	}
	if implausible {
		n = append(n, "implausible")
	}
	return strings.Join(n, ", ")
}

func formatTable(title string, f media.Format) string {
	rows := [][]string{
		{"duration", humanize.FtoaWithDigits(f.Container.Duration, 2) + " s"},
		{"start", humanize.FtoaWithDigits(f.Container.Start, 3) + " s"},
		{"overall bitrate", kbps(f.Container.Bitrate)},
		{"video", fmt.Sprintf("%s %s %s @ %s fps", f.Video.Codec, f.Video.Color,
			dimensions(f.Video.Width, f.Video.Height), humanize.FtoaWithDigits(f.Video.FPS, 3))},
		{"video bitrate", kbps(f.Video.Bitrate)},
	}
	if a := f.Audio; a != nil {
		rows = append(rows,
			[]string{"audio", fmt.Sprintf("%s %d Hz %s", a.Codec, a.SampleRate, a.ChannelSetup)},
			[]string{"audio bitrate", kbps(a.Bitrate)},
		)
	} else {
		rows = append(rows, []string{"audio", "none"})
	}
	return renderTable(title, []string{"Field", "Value"}, rows, nil)
}
