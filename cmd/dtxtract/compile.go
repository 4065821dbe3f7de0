package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/pkg/dtxtract"
)

// compiledOutput is the JSON shape printed by `dtxtract compile`: the
// tagged-tuple compiled form plus the dtversion stamp, round-tripping
// through pkg/dtxtract's exported Spec type (SPEC_FULL §3.3).
type compiledOutput struct {
	DTVersion int           `json:"dtversion"`
	Spec      *dtxtract.Spec `json:"spec"`
}

func newCompileCmd(gf *globalFlags) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a spec and print its tagged-tuple form plus the dtversion stamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specDoc, err := readSpecDoc(specPath)
			if err != nil {
				return err
			}

			sp, err := dtxtract.CompileSpec(specDoc)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(compiledOutput{DTVersion: compile.DTVersion, Spec: sp})
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "path to the spec JSON file (required)")
	cmd.MarkFlagRequired("spec")

	return cmd
}
