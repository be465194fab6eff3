package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultConfigFile is where init writes when --out is omitted.
const DefaultConfigFile = "swagger2ts.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2ts configuration file",
		Long:  "Scaffold a commented swagger2ts configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", DefaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = DefaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return wrapUsage(err, "init: cannot create parent directory: %v", err)
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return wrapUsage(err, "init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return wrapUsage(err, "init: cannot place file at %s: %v", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every option. Command-line flags override it.
const sampleConfigYAML = `# swagger2ts configuration (YAML or JSON)
# Command-line flags override these values.

# Output root; each document is written to <out>/<kebab-case name>/.
out: ./src/services

# Overwrite non-empty output directories.
# force: false

# Preview planned outputs without writing files.
# dryRun: false

# Enable debug logging.
# verbose: false

documents:
  # The name becomes the type namespace (API.Petstore) and the output directory.
  - name: petstore

    # Path or URL (http/https) to the Swagger 2.0 or OpenAPI 3 document.
    input: ./petstore.yaml

    # Extra request headers when input is a URL.
    # headers:
    #   Authorization: Bearer <token>

    # Only generate operations whose first tag is listed, or skip listed tags.
    # include: [pet]
    # exclude: [store]

    # Prefix added to, or removed from, every request URL.
    # urlPrefix: /api
    # removeUrlPrefix: /v2

    # Module the generated files import request, RequestConfig and RequestContext from.
    # requestImport: "@/utils/request"

    # Response envelope shared by every endpoint; T is the endpoint's payload.
    # responseRootInterface:
    #   code: number
    #   message: string
    #   data: T

    # Unwrap the envelope at runtime: request(...).then((res) => res.data)
    # customResponseReturnPath: data

    # Also emit <name>SSR(ctx, ...) variants, for every method (true) or a list.
    # ssr: [get]

    # Report kin-openapi validation findings as warnings.
    # validate: false

    # Replace generated types per URL and method. A string is a type
    # expression; any other value is a sample the type is inferred from.
    # manualTypes:
    #   /pet/{petId}:
    #     get:
    #       response: API.Petstore.Pet
    #       query: {limit: 10}
`
