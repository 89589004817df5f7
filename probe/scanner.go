package probe

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"chapterize/internal/logger"
	"chapterize/internal/progress"
	"chapterize/models"
)

// Scanner probes every input file for its chapter title and duration.
//
// Files are probed concurrently, up to Workers at a time, but results are
// stored by position so the returned slice always follows the input order.
type Scanner struct {
	Durations DurationProbe
	Tags      TagReader
	// TitleTag is the tag holding each file's chapter title.
	TitleTag string
	Workers  int
	Logger   *logger.Logger
	Progress progress.Reporter
}

// Scan probes paths and returns one FileProbe per path, in order.
//
// A file whose duration cannot be read yields a failed FileProbe carrying a
// probe failure; it is up to the caller to decide what to do with it. A file
// whose title cannot be read keeps an empty title. Scan itself only fails
// when ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, paths []string) ([]*models.FileProbe, error) {
	log := s.Logger
	if log == nil {
		log = logger.Discard()
	}
	reporter := s.Progress
	if reporter == nil {
		reporter = progress.Noop{}
	}

	titleTag := s.TitleTag
	if titleTag == "" {
		titleTag = KeyTitle
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*models.FileProbe, len(paths))
	bar := reporter.NewBar("Probing", int64(len(paths)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fp, err := s.probeOne(gctx, log, i, path, titleTag)
			if err != nil {
				return err
			}
			results[i] = fp
			bar.Increment()
			return nil
		})
	}

	err := g.Wait()
	bar.Done()
	reporter.Wait()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scanner) probeOne(ctx context.Context, log *logger.Logger, index int, path, titleTag string) (*models.FileProbe, error) {
	flog := log.WithField("file", filepath.Base(path))

	title, err := s.Tags.Tag(ctx, path, titleTag)
	if err != nil {
		if isCancelled(ctx) {
			return nil, ctx.Err()
		}
		flog.WithError(err).Warn("Could not read chapter title", "tag", titleTag)
		title = ""
	} else if title == "" {
		flog.Warn("File has no chapter title", "tag", titleTag)
	}

	duration, err := s.Durations.Duration(ctx, path)
	if err == nil {
		fp, verr := models.NewFileProbeSuccess(index, path, title, duration)
		if verr == nil {
			flog.Debug("Probed file", "title", title, "seconds", duration)
			return fp, nil
		}
		err = verr
	}

	if isCancelled(ctx) {
		return nil, ctx.Err()
	}

	flog.WithError(err).Warn("Could not read duration")
	return models.NewFileProbeFailure(index, path, title, models.NewProbeFailure(path, err))
}

// isCancelled reports whether the whole scan was stopped, as opposed to a
// per-file timeout or tool failure.
func isCancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}
