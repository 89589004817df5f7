package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"chapterize/command/artwork"
	"chapterize/concatenator"
	"chapterize/config"
	"chapterize/ffprobe"
	"chapterize/internal/logger"
	"chapterize/internal/progress"
	"chapterize/internal/prompt"
	"chapterize/models"
	"chapterize/probe"
)

// Concatenator merges the input files and applies the metadata document.
type Concatenator interface {
	Concatenate(ctx context.Context, paths []string, metadataPath, outputPath string) error
}

// progressConcatenator is a Concatenator that can report ffmpeg progress.
type progressConcatenator interface {
	Concatenator
	SetProgressCallback(totalSeconds float64, callback models.ProgressCallback)
}

var _ progressConcatenator = (*concatenator.Concatenator)(nil)

// ArtworkAttacher writes a copy of inputPath with imagePath as its cover to
// outputPath.
type ArtworkAttacher interface {
	Attach(ctx context.Context, inputPath, imagePath, outputPath string) error
}

// CoverExtractor returns the cover embedded in an audio file, or nil data
// when there is none.
type CoverExtractor func(ctx context.Context, path string) (data []byte, mimeType string, err error)

// Deps are the collaborators of a pipeline run. Zero values are replaced by
// silent defaults where one exists.
type Deps struct {
	Durations probe.DurationProbe
	Tags      probe.TagReader
	Concat    Concatenator
	Artwork   ArtworkAttacher
	Covers    CoverExtractor
	// Prober re-reads the finished file when chapter verification is on.
	Prober *ffprobe.Prober
	// Asker is consulted for a missing title. Nil disables prompting.
	Asker    prompt.Asker
	Logger   *logger.Logger
	Progress progress.Reporter
	// Out receives the phase banners and tables.
	Out io.Writer
}

// NewDeps wires the real collaborators described by cfg.
func NewDeps(cfg *config.Config, log *logger.Logger) (*Deps, error) {
	prober := ffprobe.New(cfg.Tools.FFprobe, cfg.Probe.Timeout)

	durations, err := probe.NewDurationProbe(cfg.Probe.DurationStrategy, prober)
	if err != nil {
		return nil, err
	}
	tags, err := probe.NewTagReader(cfg.Probe.TagStrategy, prober)
	if err != nil {
		return nil, err
	}
	attacher, err := newArtworkAttacher(cfg)
	if err != nil {
		return nil, err
	}

	interactive := prompt.IsInteractive()

	deps := &Deps{
		Durations: probe.Calibrate(durations, cfg.Probe.Calibration),
		Tags:      tags,
		Concat: concatenator.NewConcatenator(concatenator.Options{
			Binary:   cfg.Tools.FFmpeg,
			Codec:    cfg.Encode.Codec,
			Bitrate:  cfg.Encode.Bitrate,
			Timeout:  cfg.Encode.Timeout,
			WorkDir:  cfg.WorkDir,
			KeepList: cfg.KeepIntermediate,
		}),
		Artwork:  attacher,
		Covers:   probe.ExtractCover,
		Prober:   prober,
		Logger:   log,
		Progress: progress.New(os.Stderr, interactive),
		Out:      os.Stdout,
	}
	if cfg.Interactive && interactive {
		deps.Asker = prompt.Terminal{}
	}
	return deps, nil
}

// builderAttacher runs an artwork.ArtworkBuilder per call.
type builderAttacher struct {
	tool    artwork.Tool
	binary  string
	timeout time.Duration
}

// newArtworkAttacher resolves the configured artwork tool and the binary
// that runs it.
func newArtworkAttacher(cfg *config.Config) (builderAttacher, error) {
	tool, err := artwork.ParseTool(cfg.Artwork.Tool)
	if err != nil {
		return builderAttacher{}, err
	}

	binary := cfg.Tools.AtomicParsley
	if tool == artwork.ToolFFmpeg {
		binary = cfg.Tools.FFmpeg
	}
	return builderAttacher{tool: tool, binary: binary, timeout: cfg.Artwork.Timeout}, nil
}

func (b builderAttacher) command(inputPath, imagePath, outputPath string) *artwork.ArtworkBuilder {
	return artwork.NewArtworkBuilder(inputPath, imagePath, outputPath).
		SetTool(b.tool).
		SetBinary(b.binary).
		SetTimeout(b.timeout)
}

func (b builderAttacher) Attach(ctx context.Context, inputPath, imagePath, outputPath string) error {
	return b.command(inputPath, imagePath, outputPath).Run(ctx)
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Logger == nil {
		out.Logger = logger.Discard()
	}
	if out.Progress == nil {
		out.Progress = progress.Noop{}
	}
	if out.Out == nil {
		out.Out = io.Discard
	}
	return &out
}
