package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

func (c *cli) sconCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scon",
		Short: "文本值工具",
	}

	var compact bool
	fmtCmd := &cobra.Command{
		Use:   "fmt <literal>",
		Short: "解析并重新输出文本值",
		Long:  "解析文本值并按规范形式输出，不受 --output 影响。",
		Example: `  transcode scon fmt 'Transfer { to: Some(0x01), values: [1, 2] }'
  transcode scon fmt --compact '[ 1 ,2 ]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := scon.Parse(args[0])
			if err != nil {
				return err
			}
			text := scon.Pretty(v)
			if compact {
				text = v.String()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	fmtCmd.Flags().BoolVar(&compact, "compact", false, "单行输出")

	cmd.AddCommand(fmtCmd)
	return cmd
}
