package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"badchars/internal/scan"
	"badchars/internal/source"
	"badchars/internal/trace"
)

// SkipReason explains why a file was not scanned.
type SkipReason string

const (
	SkipTooLarge SkipReason = "too large"
	SkipNotText  SkipReason = "not text"
)

// Options tune a batch scan.
type Options struct {
	Jobs     int          // <= 0 means GOMAXPROCS
	MaxBytes int64        // <= 0 means no limit
	Sink     ProgressSink // nil means no progress events
	Cache    *DiskCache   // nil disables the result cache
	BaseDir  string       // base for relative paths in the FileSet
}

// FileResult содержит результат сканирования одного файла.
type FileResult struct {
	Path     string
	FileID   source.FileID // valid only when Loaded
	Loaded   bool
	Findings []scan.Finding
	Skipped  SkipReason
	Cached   bool
	Err      error
}

// Scanned reports whether the matcher actually ran over the file (or its
// cached result was used).
func (r FileResult) Scanned() bool {
	return r.Loaded && r.Err == nil && r.Skipped == ""
}

// ScanFiles scans files with snap. Files are loaded one after another into a
// FileSet, then scanned in parallel. Results come back in the order of files;
// per-file failures are reported in FileResult.Err and never stop the run.
// The returned error is only set when ctx is cancelled.
func ScanFiles(ctx context.Context, snap *scan.Snapshot, files []string, opts Options) (*source.FileSet, []FileResult, error) {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeSession, "scan_files", 0).
		WithExtra("files", strconv.Itoa(len(files)))
	defer span.End("")

	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}

	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return fileSet, results, nil
	}

	// Предзагрузка последовательно: FileSet не потокобезопасен на запись
	for i, path := range files {
		sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusQueued})
		results[i] = load(fileSet, path, opts.MaxBytes)
		switch {
		case results[i].Err != nil:
			trace.Point(tr, trace.ScopeError, "load_failed", results[i].Err.Error(), "file", path)
			sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusError, Err: results[i].Err})
		case results[i].Skipped != "":
			trace.Point(tr, trace.ScopeDocument, "skip", string(results[i].Skipped), "file", path)
			sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusSkipped})
		}
	}

	var snapDigest Digest
	if opts.Cache != nil {
		snapDigest = SnapshotDigest(snap)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i := range results {
		if !results[i].Scanned() {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// индекс i уникален для горутины, мьютекс не нужен
			res := &results[i]
			file := fileSet.Get(res.FileID)
			started := time.Now()
			sink.OnEvent(Event{File: res.Path, Stage: StageScan, Status: StatusWorking})

			var key Digest
			if opts.Cache != nil {
				key = combineDigest(contentDigest(file.Content), snapDigest)
				var payload CachePayload
				if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
					res.Findings = payload.Findings
					res.Cached = true
				}
			}
			if !res.Cached {
				res.Findings = snap.Scan(file.Text())
				if opts.Cache != nil {
					//nolint:errcheck // cache is best-effort
					_ = opts.Cache.Put(key, &CachePayload{Findings: res.Findings})
				}
			}

			trace.Point(tr, trace.ScopeDocument, "scanned", res.Path,
				"findings", strconv.Itoa(len(res.Findings)), "cached", strconv.FormatBool(res.Cached))
			sink.OnEvent(Event{
				File:     res.Path,
				Stage:    StageScan,
				Status:   StatusDone,
				Findings: len(res.Findings),
				Elapsed:  time.Since(started),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func load(fileSet *source.FileSet, path string, maxBytes int64) FileResult {
	res := FileResult{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		res.Skipped = SkipTooLarge
		return res
	}
	id, err := fileSet.Load(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to load file: %w", err)
		return res
	}
	res.FileID = id
	res.Loaded = true
	if !source.LooksText(fileSet.Get(id).Content) {
		res.Skipped = SkipNotText
	}
	return res
}

// ScanContent scans content that does not come from disk (stdin). The text
// sniff applies as for files; there is no size limit.
func ScanContent(snap *scan.Snapshot, name string, content []byte) (*source.FileSet, FileResult) {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual(name, content)
	res := FileResult{Path: name, FileID: id, Loaded: true}
	file := fileSet.Get(id)
	if !source.LooksText(file.Content) {
		res.Skipped = SkipNotText
		return fileSet, res
	}
	res.Findings = snap.Scan(file.Text())
	return fileSet, res
}

// ScanText scans a string handed over as text rather than as file bytes
// (MCP tool calls). Every rune is content: a leading U+FEFF and NUL are
// reported like any other table entry, and there is no text sniff.
func ScanText(snap *scan.Snapshot, name, text string) (*source.FileSet, FileResult) {
	fileSet := source.NewFileSet()
	id := fileSet.Add(name, []byte(text), source.FileVirtual|source.FileKeepBOM)
	res := FileResult{Path: name, FileID: id, Loaded: true}
	res.Findings = snap.Scan(fileSet.Get(id).Text())
	return fileSet, res
}
