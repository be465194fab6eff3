package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/build"
	"github.com/mark3labs/swagger2ts/internal/config"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging the config file and CLI overrides.
type GenerateConfig struct {
	config.File
	ConfigPath string
	// LogOutput receives the structured log records.
	LogOutput io.Writer
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate TypeScript request functions and typings from OpenAPI/Swagger documents",
		Long: "Generate TypeScript request functions and typings from OpenAPI/Swagger documents. " +
			"Documents come from a config file; flags override its values or describe a single document.",
		Example: strings.TrimSpace(`  swagger2ts generate --input petstore.yaml --name petstore --out ./src/services
  swagger2ts --config swagger2ts.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.LogOutput = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("name", "", "Document name; selects the configured document or names the synthesized one")
	flags.String("out", "", "Output root directory (default "+config.DefaultOut+")")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.String("url-prefix", "", "Prefix prepended to every request URL")
	flags.String("remove-url-prefix", "", "Prefix stripped from every request URL")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := &GenerateConfig{}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		file, err := config.Load(configPath)
		if err != nil {
			return nil, wrapUsage(err, "%v", err)
		}
		cfg.File = *file
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoDocuments) {
			return nil, wrapUsage(err, "generate: --input is required (set via flag or config file documents)")
		}
		return nil, wrapUsage(err, "generate: %v", err)
	}
	return cfg, nil
}

var documentFlags = []string{"input", "name", "include-tags", "exclude-tags", "url-prefix", "remove-url-prefix"}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	changed := false
	for _, name := range documentFlags {
		changed = changed || flags.Changed(name)
	}
	if !changed {
		return nil
	}
	doc, err := targetDocument(flags, cfg)
	if err != nil {
		return err
	}
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		doc.Input = strings.TrimSpace(value)
	}
	if flags.Changed("include-tags") {
		value, err := flags.GetStringSlice("include-tags")
		if err != nil {
			return err
		}
		doc.Include = config.SanitizeTags(value)
	}
	if flags.Changed("exclude-tags") {
		value, err := flags.GetStringSlice("exclude-tags")
		if err != nil {
			return err
		}
		doc.Exclude = config.SanitizeTags(value)
	}
	if flags.Changed("url-prefix") {
		value, err := flags.GetString("url-prefix")
		if err != nil {
			return err
		}
		doc.URLPrefix = strings.TrimSpace(value)
	}
	if flags.Changed("remove-url-prefix") {
		value, err := flags.GetString("remove-url-prefix")
		if err != nil {
			return err
		}
		doc.RemoveURLPrefix = strings.TrimSpace(value)
	}
	if doc.Name == "" {
		doc.Name = deriveName(doc.Input)
	}
	return nil
}

// targetDocument picks the document the per-document flags apply to: the one
// matching --name, else the only configured one. An --input that selects
// nothing adds a new document.
func targetDocument(flags *pflag.FlagSet, cfg *GenerateConfig) (*config.Document, error) {
	name, err := flags.GetString("name")
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name != "" {
		for i := range cfg.Documents {
			if strings.EqualFold(strings.TrimSpace(cfg.Documents[i].Name), name) {
				return &cfg.Documents[i], nil
			}
		}
	}
	switch {
	case len(cfg.Documents) == 1 && name == "":
		return &cfg.Documents[0], nil
	case len(cfg.Documents) == 0 || (name != "" && flags.Changed("input")):
		if !flags.Changed("input") {
			return nil, newUsageError("generate: --input is required (set via flag or config file documents)")
		}
		cfg.Documents = append(cfg.Documents, config.Document{Name: name})
		return &cfg.Documents[len(cfg.Documents)-1], nil
	case name != "":
		return nil, newUsageError(fmt.Sprintf("generate: no configured document is named %q", name))
	default:
		return nil, newUsageError(fmt.Sprintf("generate: %d documents are configured; use --name to pick one", len(cfg.Documents)))
	}
}

// deriveName turns an input path or URL into a document name:
// "./specs/petstore.yaml" becomes "petstore".
func deriveName(input string) string {
	p := input
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		p = u.Path
	}
	base := path.Base(filepath.ToSlash(p))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "api"
	}
	return base
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	reports, err := build.Run(ctx, cfg.Documents, build.Options{
		Out:    cfg.Out,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
		Logger: newLogger(cfg.LogOutput, cfg.Verbose),
	})
	if cfg.DryRun {
		for _, rep := range reports {
			absOut := rep.OutDir
			if ap, err := filepath.Abs(rep.OutDir); err == nil {
				absOut = ap
			}
			paths := make([]string, 0, len(rep.Planned))
			for _, p := range rep.Planned {
				paths = append(paths, p.RelPath)
			}
			printPlan(absOut, len(paths), paths)
		}
	}
	if err != nil {
		return friendlyError(err)
	}
	return nil
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

// friendlyError maps document and output failures into usage errors with
// hints. The result is a usage error only when every failure is one the user
// can fix from the command line.
func friendlyError(err error) error {
	failures := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		failures = joined.Unwrap()
	}
	msgs := make([]string, 0, len(failures))
	usage := true
	for _, f := range failures {
		var se *spec.SpecError
		switch {
		case errors.As(f, &se):
			msg := f.Error()
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			msgs = append(msgs, msg)
		case isOutputError(f):
			msgs = append(msgs, fmt.Sprintf("output error: %s\nHint: choose a different --out or use --force when appropriate.", f))
		default:
			usage = false
			msgs = append(msgs, f.Error())
		}
	}
	if !usage {
		return err
	}
	return wrapUsage(err, "%s", strings.Join(msgs, "\n"))
}

func isOutputError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") ||
		strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory")
}
