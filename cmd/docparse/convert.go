package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/config"
	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/render"
	parseuc "github.com/kailas-cloud/docparse/internal/usecase/parse"
)

type convertFlags struct {
	format  string
	asJSON  bool
	warmAll bool
}

func newConvertCmd(root *rootFlags) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <path|url>",
		Short: "Convert one document and print the result",
		Long: `Convert a local file or an http(s) URL through the configured engine and
write the rendering to stdout. With --json the full response data is printed,
including picture_data and the document export.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runConvert(cmd.Context(), cfg, logger, cmd.OutOrStdout(), args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", string(render.FormatMarkdown), "output format: markdown, text or html")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print output and json_output as JSON")
	cmd.Flags().BoolVar(&flags.warmAll, "warm-all", false, "warm every configured format instead of the input's own")
	return cmd
}

// convertOutput mirrors the data part of the HTTP response.
type convertOutput struct {
	Output     string         `json:"output"`
	JSONOutput map[string]any `json:"json_output"`
}

func runConvert(
	ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer, arg string, flags *convertFlags,
) error {
	format, err := render.ParseFormat(flags.format)
	if err != nil {
		return fmt.Errorf("--format: %w", err)
	}
	src := sourceFromArg(arg)

	var formats []conversion.Format
	if f, ok := inputFormat(src); ok && !flags.warmAll {
		formats = []conversion.Format{f}
	}

	a, err := buildApp(ctx, cfg, logger, formats)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.parser.Parse(ctx, parseuc.Request{
		Source:      src,
		Format:      format,
		IncludeJSON: flags.asJSON,
	})
	if err != nil {
		return fmt.Errorf("convert %s: %w", src.Name(), err)
	}

	if !flags.asJSON {
		_, err = fmt.Fprintln(out, res.Output)
		return err //nolint:wrapcheck // stdout write
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(convertOutput{Output: res.Output, JSONOutput: res.JSON}); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func sourceFromArg(arg string) conversion.Source {
	if u, err := url.Parse(arg); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return conversion.FromURL(arg)
	}
	return conversion.FromPath(arg)
}

// inputFormat guesses the pipeline format from the source extension so a
// one-shot run warms only what it needs.
func inputFormat(src conversion.Source) (conversion.Format, bool) {
	switch ext := src.Ext(); ext {
	case "pdf", "docx", "html", "md", "csv", "asciidoc":
		return conversion.Format(ext), true
	case "htm", "xhtml":
		return conversion.FormatHTML, true
	case "markdown":
		return conversion.FormatMarkdown, true
	case "adoc", "asc":
		return conversion.FormatAsciiDoc, true
	case "png", "jpg", "jpeg", "tif", "tiff", "bmp", "webp":
		return conversion.FormatImage, true
	default:
		return "", false
	}
}

