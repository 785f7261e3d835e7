package main

import (
	"encoding/json"
	"fmt"

	descriptor "github.com/goliatone/go-descriptor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print every property slot and the layers stacked on it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, v, nil)
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(descriptor.Describe(s.record), "", "  ")
			if err != nil {
				return fmt.Errorf("wrapctl: encode: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}
