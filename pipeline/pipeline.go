// Package pipeline runs the audiobook build: discover the input files,
// probe them, accumulate chapters, write the metadata document,
// concatenate, attach artwork and move the result into place.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chapterize/chapters"
	"chapterize/command/concat"
	"chapterize/config"
	"chapterize/ffmetadata"
	"chapterize/internal/timeutil"
	"chapterize/models"
	"chapterize/probe"
)

// Pipeline runs one configured build.
type Pipeline struct {
	cfg  *config.Config
	deps *Deps
}

// Report summarizes a run.
type Report struct {
	OutputPath   string
	MetadataPath string
	Files        int
	Chapters     []models.ChapterRecord
	Skipped      []*models.FileProbe
	Placeholders []*models.FileProbe
	TotalSeconds float64
	Artwork      bool
	Elapsed      time.Duration
}

// New creates a pipeline for cfg.
func New(cfg *config.Config, deps *Deps) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps.withDefaults()}
}

// plan is the result of the analysis phases shared by Build and Metadata.
type plan struct {
	paths     []string
	selection *probe.Selection
	records   []models.ChapterRecord
	doc       ffmetadata.Document
}

// Metadata probes the inputs and writes only the FFMETADATA document, to
// the configured metadata file or FFMETADATA.txt in the output directory.
func (p *Pipeline) Metadata(ctx context.Context) (*Report, error) {
	start := time.Now()

	pl, err := p.analyze(ctx)
	if err != nil {
		return nil, err
	}

	dir := p.cfg.OutputDir
	if dir == "" {
		dir = p.cfg.Source
	}
	metadataPath := p.cfg.MetadataPath(dir)
	if err := p.writeMetadata(metadataPath, pl.doc); err != nil {
		return nil, err
	}

	return p.report(pl, "", metadataPath, false, start), nil
}

// Build runs the whole pipeline and returns a summary.
//
// An encode failure is fatal. An artwork failure is logged and the book is
// delivered without a cover.
func (p *Pipeline) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	out := p.deps.Out
	log := p.deps.Logger

	workDir, cleanup, err := p.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pl, err := p.analyze(ctx)
	if err != nil {
		return nil, err
	}

	metadataPath := p.cfg.MetadataPath(workDir)
	if err := p.writeMetadata(metadataPath, pl.doc); err != nil {
		return nil, err
	}

	finalPath := p.cfg.OutputPath()
	mergedPath := filepath.Join(workDir, p.cfg.Output+".m4a")

	if p.cfg.DryRun {
		if err := p.printCommands(pl.selection.Paths, metadataPath, mergedPath, finalPath); err != nil {
			return nil, err
		}
		return p.report(pl, "", metadataPath, false, start), nil
	}

	// PHASE 3: Concatenation
	phase(out, "🔗 Phase 3: Concatenation")
	totalSeconds := chapters.TotalSeconds(pl.records, p.cfg.Chapters.UnitsPerSecond)
	if err := p.concatenate(ctx, pl.selection.Paths, metadataPath, mergedPath, totalSeconds); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "  ✓ Merged %d files into %s\n\n", len(pl.selection.Paths), filepath.Base(mergedPath))

	// PHASE 4: Artwork
	phase(out, "🖼️  Phase 4: Artwork")
	attached := p.attachArtwork(ctx, workDir, pl.selection.Paths[0], mergedPath, finalPath)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !attached {
		if err := moveFile(mergedPath, finalPath); err != nil {
			return nil, fmt.Errorf("failed to move output into place: %w", err)
		}
	}
	fmt.Fprintf(out, "  ✓ Output: %s\n\n", finalPath)

	if p.cfg.VerifyChapters {
		p.verify(ctx, finalPath, len(pl.records))
	}

	log.Info("Audiobook created", "output", finalPath, "chapters", len(pl.records))
	return p.report(pl, finalPath, metadataPath, attached, start), nil
}

// analyze runs discovery, probing and chapter accumulation.
func (p *Pipeline) analyze(ctx context.Context) (*plan, error) {
	out := p.deps.Out
	log := p.deps.Logger

	// PHASE 1: Probing
	phase(out, "📊 Phase 1: Probing")
	paths, err := Discover(p.cfg.Source, p.cfg.InputExt)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "  Files:      %d (*%s)\n", len(paths), p.cfg.InputExt)

	scanner := &probe.Scanner{
		Durations: p.deps.Durations,
		Tags:      p.deps.Tags,
		TitleTag:  p.cfg.ChapterTitleTag,
		Workers:   p.cfg.Probe.Workers,
		Logger:    log,
		Progress:  p.deps.Progress,
	}
	probes, err := scanner.Scan(ctx, paths)
	if err != nil {
		return nil, err
	}

	policy, err := probe.ParsePolicy(p.cfg.Probe.OnFailure)
	if err != nil {
		return nil, err
	}
	sel, err := probe.Select(probes, policy)
	if err != nil {
		return nil, fmt.Errorf("probing failed: %w", err)
	}
	for _, fp := range sel.Skipped {
		log.Warn("Skipping file without duration", "file", filepath.Base(fp.Path))
	}
	for _, fp := range sel.Placeholders {
		log.Warn("Zero-length chapter for file without duration; later chapters will start early", "file", filepath.Base(fp.Path))
	}
	if len(sel.Paths) == 0 {
		return nil, fmt.Errorf("%w: none of %d files could be probed", ErrNoInputFiles, len(paths))
	}
	fmt.Fprintf(out, "  Probed:     %d ok, %d failed\n\n", len(probes)-sel.Failed(), sel.Failed())

	// PHASE 2: Chapters
	phase(out, "📖 Phase 2: Chapters")
	ups := p.cfg.Chapters.UnitsPerSecond
	records, err := chapters.Accumulate(sel.Inputs, ups)
	if err != nil {
		return nil, fmt.Errorf("chapter accumulation failed: %w", err)
	}
	if err := chapters.Validate(records); err != nil {
		return nil, fmt.Errorf("chapter validation failed: %w", err)
	}

	tags, err := p.resolveTags(ctx, sel.Paths[0])
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "  Title:      %s\n", tags.Title)
	fmt.Fprintf(out, "  Chapters:   %d\n", len(records))
	fmt.Fprintf(out, "  Length:     %s\n\n", timeutil.FormatSeconds(chapters.TotalSeconds(records, ups)))

	return &plan{
		paths:     paths,
		selection: sel,
		records:   records,
		doc: ffmetadata.Document{
			Tags:     &tags,
			Chapters: records,
			TimeBase: ups,
		},
	}, nil
}

func (p *Pipeline) writeMetadata(path string, doc ffmetadata.Document) error {
	for _, warning := range ffmetadata.Warnings(doc) {
		p.deps.Logger.Warn("Metadata value cannot be represented exactly", "detail", warning)
	}
	if err := ffmetadata.WriteFile(path, doc); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	p.deps.Logger.Debug("Wrote metadata document", "path", path)
	return nil
}

func (p *Pipeline) concatenate(ctx context.Context, paths []string, metadataPath, outputPath string, totalSeconds float64) error {
	c := p.deps.Concat
	if pc, ok := c.(progressConcatenator); ok {
		bar := p.deps.Progress.NewBar("Encoding", 100)
		defer func() {
			bar.Done()
			p.deps.Progress.Wait()
		}()
		pc.SetProgressCallback(totalSeconds, func(progress *models.EncodingProgress) {
			bar.SetCurrent(int64(progress.Progress))
			if progress.State == models.ProgressStateCompleted {
				p.deps.Logger.Debug("Encoding finished", "progress", progress.String())
			}
		})
	}

	if err := c.Concatenate(ctx, paths, metadataPath, outputPath); err != nil {
		return fmt.Errorf("concatenation failed: %w", err)
	}
	return nil
}

// attachArtwork writes finalPath with a cover when one can be found. It
// returns false when the caller must deliver mergedPath unchanged.
func (p *Pipeline) attachArtwork(ctx context.Context, workDir, firstFile, mergedPath, finalPath string) bool {
	out := p.deps.Out
	log := p.deps.Logger

	image := p.findArtwork(ctx, workDir, firstFile)
	if image == "" {
		fmt.Fprintln(out, "  ⚠️  No artwork attached")
		return false
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		log.Warn("Could not create output directory", "error", err)
		return false
	}

	if err := p.deps.Artwork.Attach(ctx, mergedPath, image, finalPath); err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("Artwork could not be attached, continuing without it", "image", image)
		}
		os.Remove(finalPath)
		return false
	}

	fmt.Fprintf(out, "  ✓ Attached %s\n", filepath.Base(image))
	return true
}

// findArtwork returns the configured image, or the first file's embedded
// cover written into workDir, or "".
func (p *Pipeline) findArtwork(ctx context.Context, workDir, firstFile string) string {
	log := p.deps.Logger

	image := p.cfg.ArtworkPath()
	if image != "" {
		if _, err := os.Stat(image); err == nil {
			return image
		}
		log.Warn("Artwork file not found", "path", image)
	}

	if !p.cfg.Artwork.UseEmbedded || p.deps.Covers == nil {
		return ""
	}

	data, mimeType, err := p.deps.Covers(ctx, firstFile)
	if err != nil || len(data) == 0 {
		log.Warn("No embedded cover in first file", "file", filepath.Base(firstFile), "error", err)
		return ""
	}

	coverPath := filepath.Join(workDir, "cover"+coverExtension(mimeType))
	if err := os.WriteFile(coverPath, data, 0644); err != nil {
		log.Warn("Could not write embedded cover", "error", err)
		return ""
	}
	log.Info("Using embedded cover", "file", filepath.Base(firstFile), "mime", mimeType)
	return coverPath
}

func coverExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

// verify re-probes the output and warns when the chapter count differs.
func (p *Pipeline) verify(ctx context.Context, path string, expected int) {
	log := p.deps.Logger
	if p.deps.Prober == nil {
		return
	}

	result, err := p.deps.Prober.Probe(ctx, path)
	if err != nil {
		log.Warn("Could not verify output", "error", err)
		return
	}
	if len(result.GetAudioStreams()) == 0 {
		log.Warn("Output has no audio stream", "path", path)
		return
	}
	if !result.HasChapters() && expected > 0 {
		log.Warn("Output has no chapters", "expected", expected)
		return
	}
	if got := result.GetChapterCount(); got != expected {
		log.Warn("Output chapter count differs", "expected", expected, "got", got)
		return
	}
	log.Debug("Verified output chapters", "chapters", expected)
}

// workDir returns the directory for intermediate files and its cleanup.
// A configured directory is kept; a temporary one is removed unless
// intermediate files are kept.
func (p *Pipeline) workDir() (string, func(), error) {
	if p.cfg.WorkDir != "" {
		if err := os.MkdirAll(p.cfg.WorkDir, 0755); err != nil {
			return "", nil, fmt.Errorf("failed to create work directory: %w", err)
		}
		return p.cfg.WorkDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "chapterize-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if p.cfg.KeepIntermediate {
		p.deps.Logger.Info("Keeping intermediate files", "dir", dir)
		return dir, func() {}, nil
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// printCommands shows the external commands a real run would execute.
func (p *Pipeline) printCommands(paths []string, metadataPath, mergedPath, finalPath string) error {
	out := p.deps.Out

	fmt.Fprintln(out, "Commands:")
	concatCmd := concat.NewConcatBuilder(filepath.Join(filepath.Dir(metadataPath), "concat.txt"), metadataPath, mergedPath).
		SetBinary(p.cfg.Tools.FFmpeg).
		SetCodec(p.cfg.Encode.Codec).
		SetBitrate(p.cfg.Encode.Bitrate)
	if line, err := concatCmd.DryRun(); err == nil {
		fmt.Fprintf(out, "  %s\n", line)
	}

	attacher, err := newArtworkAttacher(p.cfg)
	if err != nil {
		return err
	}
	if image := p.cfg.ArtworkPath(); image != "" {
		if line, err := attacher.command(mergedPath, image, finalPath).DryRun(); err == nil {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	fmt.Fprintf(out, "  (%d input files)\n", len(paths))
	return nil
}

func (p *Pipeline) report(pl *plan, outputPath, metadataPath string, attached bool, start time.Time) *Report {
	return &Report{
		OutputPath:   outputPath,
		MetadataPath: metadataPath,
		Files:        len(pl.selection.Paths),
		Chapters:     pl.records,
		Skipped:      pl.selection.Skipped,
		Placeholders: pl.selection.Placeholders,
		TotalSeconds: chapters.TotalSeconds(pl.records, p.cfg.Chapters.UnitsPerSecond),
		Artwork:      attached,
		Elapsed:      time.Since(start),
	}
}

func phase(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}
