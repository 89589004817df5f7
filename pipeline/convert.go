package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chapterize/command/audio"
	"chapterize/internal/progress"
	"chapterize/models"
	"chapterize/orchestrator"
)

// ConvertReport summarizes a convert run.
type ConvertReport struct {
	Converted []string
	Failed    int
	Elapsed   time.Duration
}

// Convert re-encodes every input file into its own M4A in the output
// directory, running up to Probe.Workers conversions at once. It returns an
// error joining every failed conversion.
func (p *Pipeline) Convert(ctx context.Context) (*ConvertReport, error) {
	start := time.Now()
	out := p.deps.Out
	log := p.deps.Logger

	phase(out, "🎵 Converting")
	paths, err := Discover(p.cfg.Source, p.cfg.InputExt)
	if err != nil {
		return nil, err
	}

	outDir := p.cfg.OutputDir
	if outDir == "" {
		outDir = p.cfg.Source
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	orch := orchestrator.NewDAGOrchestrator([]orchestrator.ResourceConstraint{
		{Type: orchestrator.ResourceCPU, MaxSlots: max(p.cfg.Probe.Workers, 1)},
	})

	bars := &fileBars{reporter: p.deps.Progress, bars: map[string]progress.Bar{}}

	for i, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		builder := audio.NewAudioBuilder(path, filepath.Join(outDir, base+".m4a")).
			SetBinary(p.cfg.Tools.FFmpeg).
			SetTimeout(p.cfg.Encode.Timeout).
			SetCodec(p.cfg.Encode.Codec).
			SetBitrate(p.cfg.Encode.Bitrate).
			SetSampleRate(p.cfg.Encode.SampleRate).
			SetChannels(p.cfg.Encode.Channels)
		for _, filter := range p.cfg.Encode.Filters {
			builder.SetFilters(filter)
		}

		if p.cfg.DryRun {
			if line, err := builder.DryRun(); err == nil {
				fmt.Fprintf(out, "  %s\n", line)
			}
			continue
		}

		id := fmt.Sprintf("convert_%03d", i)
		name := filepath.Base(path)
		builder.SetDuration(p.inputSeconds(ctx, path)).
			SetProgressCallback(func(ep *models.EncodingProgress) {
				bars.update(id, name, ep)
			})

		task := &orchestrator.Task{
			ID:       id,
			Command:  builder,
			Resource: orchestrator.ResourceCPU,
		}
		if err := orch.AddTask(task); err != nil {
			return nil, fmt.Errorf("failed to add task: %w", err)
		}
	}

	if p.cfg.DryRun {
		return &ConvertReport{Elapsed: time.Since(start)}, nil
	}

	orch.SetProgressCallback(func(completed, total int, task *orchestrator.Task) {
		bars.done(task.ID)
		flog := log.WithField("file", filepath.Base(task.Command.GetInputPath()))
		if task.Error != nil {
			flog.WithError(task.Error).Warn("Conversion failed")
			return
		}
		flog.Debug("Converted file", "done", completed, "of", total)
	})

	results, err := orch.Execute(ctx)
	bars.finish()
	p.deps.Progress.Wait()
	if err != nil {
		return nil, err
	}

	report := &ConvertReport{}
	var errs []error
	for _, r := range results {
		if r.Success() {
			report.Converted = append(report.Converted, r.OutputPath)
			continue
		}
		report.Failed++
		errs = append(errs, r.Err)
	}
	report.Elapsed = time.Since(start)

	stats := orch.GetStats()
	fmt.Fprintf(out, "  ✓ Converted %d of %d files in %.2fs\n", stats["completed"], stats["total"], report.Elapsed.Seconds())
	if stats["failed"] > 0 {
		fmt.Fprintf(out, "  ✗ %d failed\n", stats["failed"])
	}

	if len(errs) > 0 {
		return report, fmt.Errorf("%d of %d conversions failed: %w", report.Failed, len(paths), errors.Join(errs...))
	}
	return report, nil
}

// inputSeconds returns the length of path for progress reporting, or 0
// when it cannot be read.
func (p *Pipeline) inputSeconds(ctx context.Context, path string) float64 {
	if p.deps.Durations == nil {
		return 0
	}
	seconds, err := p.deps.Durations.Duration(ctx, path)
	if err != nil {
		p.deps.Logger.Debug("No duration for conversion progress", "file", filepath.Base(path), "error", err)
		return 0
	}
	return seconds
}

// fileBars keeps one progress bar per running conversion. A bar appears
// with the first update from ffmpeg.
type fileBars struct {
	mu       sync.Mutex
	reporter progress.Reporter
	bars     map[string]progress.Bar
}

func (f *fileBars) update(id, name string, ep *models.EncodingProgress) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bar, ok := f.bars[id]
	if !ok {
		bar = f.reporter.NewBar(name, 100)
		f.bars[id] = bar
	}
	bar.SetCurrent(int64(ep.Progress))
}

func (f *fileBars) done(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if bar, ok := f.bars[id]; ok {
		bar.Done()
		delete(f.bars, id)
	}
}

// finish closes the bars of tasks that never reported completion.
func (f *fileBars) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, bar := range f.bars {
		bar.Done()
		delete(f.bars, id)
	}
}
