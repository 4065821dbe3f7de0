package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mibar/dtxtract/pkg/dtxtract"
)

// urlOutput is the JSON shape printed by `dtxtract url`: the synthesized
// request pieces (SPEC_FULL §3.3 "prints the synthesized request pieces
// (method/url/headers)").
type urlOutput struct {
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers,omitempty"`
	AcceptHeader string            `json:"accept-header,omitempty"`
	Data         map[string]any    `json:"data,omitempty"`
}

func newURLCmd(gf *globalFlags) *cobra.Command {
	var specPath string
	var vars map[string]string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Run the URL builder alone and print the synthesized request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specDoc, err := readSpecDoc(specPath)
			if err != nil {
				return err
			}

			cfg, _, err := loadConfigAndRegistry(gf)
			if err != nil {
				return err
			}

			sp, err := dtxtract.CompileSpec(specDoc)
			if err != nil {
				return err
			}

			runtimeVars := make(map[string]any, len(vars))
			for k, v := range vars {
				runtimeVars[k] = v
			}

			req, err := dtxtract.BuildURL(sp, runtimeVars, cfg.CurrentDateAnchor(), nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(urlOutput{
				Method:       req.Method,
				URL:          req.URL,
				Headers:      req.Headers,
				AcceptHeader: req.AcceptHeader,
				Data:         req.Data,
			})
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "path to the spec JSON file (required)")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "runtime variable as key=value, repeatable")
	cmd.MarkFlagRequired("spec")

	return cmd
}
