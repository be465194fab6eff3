// Package build runs the fetch, translate, render and write pipeline for
// every configured document.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/internal/translate"
	"golang.org/x/sync/errgroup"
)

// RawDocName is the base name of the persisted source document.
const RawDocName = "api-doc"

// Options are the run-wide settings.
type Options struct {
	Out    string
	Force  bool
	DryRun bool
	Logger *slog.Logger
	// LoaderOptions are passed to every spec.Load call.
	LoaderOptions []spec.Option
	// Format post-processes generated .ts files.
	Format func(relPath string, content []byte) ([]byte, error)
}

// Report is what one document produced.
type Report struct {
	Name     string
	OutDir   string
	Planned  []tsemitter.PlannedFile
	Findings []*spec.SpecError
}

// Run builds every document concurrently. A failing document does not stop
// the others; all failures are joined into the returned error and reports
// hold the documents that succeeded, in configuration order.
func Run(ctx context.Context, docs []config.Document, opts Options) ([]*Report, error) {
	if len(docs) == 0 {
		return nil, config.ErrNoDocuments
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	reports := make([]*Report, len(docs))
	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	for i := range docs {
		i := i
		doc := &docs[i]
		g.Go(func() error {
			rep, err := Document(ctx, doc, opts, log.With("document", doc.Name))
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("document %q: %w", doc.Name, err))
				mu.Unlock()
				return nil
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Report, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(errs...)
}

// Document builds one document into <Out>/<kebab(name)>.
func Document(ctx context.Context, doc *config.Document, opts Options, log *slog.Logger) (*Report, error) {
	loadOpts := append([]spec.Option(nil), opts.LoaderOptions...)
	if len(doc.Headers) > 0 {
		loadOpts = append(loadOpts, spec.WithHeaders(doc.Headers))
	}
	log.Debug("loading document", "input", doc.Input)
	src, err := spec.Load(ctx, doc.Input, loadOpts...)
	if err != nil {
		return nil, err
	}

	rep := &Report{Name: doc.Name, OutDir: filepath.Join(opts.Out, naming.Kebab(doc.Name))}
	if doc.Validate {
		rep.Findings = spec.Check(ctx, src)
		for _, f := range rep.Findings {
			log.Warn("document validation", "code", f.Code, "pointer", f.JSONPointer, "message", f.Message)
		}
	}

	res, err := translate.New(src.Doc, translate.Options{
		Include:           doc.Include,
		Exclude:           doc.Exclude,
		PropKeyReplacer:   doc.PropKeyReplacer,
		URLToNameReplacer: doc.URLToNameReplacer,
		GetTag:            doc.GetTag,
		RemoveURLPrefix:   doc.RemoveURLPrefix,
		ManualTypes:       doc.Overrides(),
		Logger:            log,
	}).Parse(ctx)
	if err != nil {
		return nil, err
	}

	files, err := tsemitter.Render(res, renderOptions(doc))
	if err != nil {
		return nil, err
	}
	files = append(files, tsemitter.File{RelPath: RawDocName + src.RawExt(), Content: src.Raw})

	emitted, err := tsemitter.Emit(ctx, files, tsemitter.Options{
		OutDir: rep.OutDir,
		Force:  opts.Force,
		DryRun: opts.DryRun,
		Format: opts.Format,
	})
	if err != nil {
		return nil, err
	}
	rep.Planned = emitted.Planned
	log.Info("generated", "dialect", src.Doc.Dialect.String(), "groups", len(res.Groups), "types", len(res.RefTypes), "out", rep.OutDir, "dryRun", opts.DryRun)
	return rep, nil
}

func renderOptions(doc *config.Document) tsemitter.RenderOptions {
	ro := tsemitter.RenderOptions{
		Scope:           doc.Name,
		ReturnPath:      doc.CustomResponseReturnPath,
		SSR:             tsemitter.SSR{All: doc.SSR.All, Methods: doc.SSR.Methods},
		URLPrefix:       doc.URLPrefix,
		RemoveURLPrefix: doc.RemoveURLPrefix,
		RequestImport:   doc.RequestImport,
	}
	for _, f := range doc.ResponseRootInterface {
		ro.ResponseRoot = append(ro.ResponseRoot, tsemitter.EnvelopeField{Name: f.Name, Type: f.Type})
	}
	return ro
}
