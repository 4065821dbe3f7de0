package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mibar/dtxtract/internal/value"
	"github.com/mibar/dtxtract/pkg/dtxtract"
)

func newExtractCmd(gf *globalFlags) *cobra.Command {
	var specPath, inputPath, format string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Compile a spec, run it against input, and print the extracted records as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specDoc, err := readSpecDoc(specPath)
			if err != nil {
				return err
			}

			input, err := readInput(inputPath)
			if err != nil {
				return err
			}

			cfg, reg, err := loadConfigAndRegistry(gf)
			if err != nil {
				return err
			}

			sp, err := dtxtract.CompileSpec(specDoc)
			if err != nil {
				return err
			}
			if format == "" {
				format = sp.TreeKind
			}
			if format == "" {
				format = "html"
			}

			tr, err := dtxtract.BuildTree(format, input, dtxtract.BuildOptions{})
			if err != nil {
				return err
			}

			current := value.NewCurrentDate(cfg.CurrentDateAnchor())
			records, err := dtxtract.Extract(tr, sp, dtxtract.Options{CallerID: resolveCallerID(gf)}, reg, current, nil)
			if err != nil {
				return err
			}

			out := make([]map[string]any, 0, len(records))
			for _, r := range records {
				out = append(out, r.Map())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "path to the spec JSON file (required)")
	cmd.Flags().StringVar(&inputPath, "input", "", "path to the input file (default: stdin)")
	cmd.Flags().StringVar(&format, "format", "", "\"html\" or \"json\" (default: the spec's data-format)")
	cmd.MarkFlagRequired("spec")

	return cmd
}

func readSpecDoc(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing spec %s: %w", path, err)
	}
	return doc, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return readAllStdin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	return data, nil
}

func readAllStdin() ([]byte, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}
