package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/weisyn/contract-transcode/client/core/output"
)

// EncodeOutput 编码结果
type EncodeOutput struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

func (c *cli) encodeCommand() *cobra.Command {
	var metadataPath string

	cmd := &cobra.Command{
		Use:   "encode --metadata <file> <name> [args...]",
		Short: "编码消息或构造函数调用",
		Long: `按名称查找消息（其次是构造函数），将每个参数按文本值解析并编码，
输出 选择器 + 参数 的调用数据。名称之后的内容全部作为参数，负数无需转义。`,
		Example: `  transcode encode --metadata flipper.json flip
  transcode encode --metadata flipper.json inc -5
  transcode encode --metadata erc20.json transfer 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY 100`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := c.loader.LoadTranscoder(metadataPath)
			if err != nil {
				return err
			}
			data, err := tr.EncodeCall(args[0], args[1:])
			if err != nil {
				return err
			}
			encoded := hexutil.Encode(data)
			c.logger.Debugf("编码完成 name=%s bytes=%d", args[0], len(data))

			if c.formatter.Format() == output.FormatText {
				return c.formatter.Print(encoded)
			}
			return c.formatter.Print(EncodeOutput{Name: args[0], Data: encoded})
		},
	}
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "合约元数据文件 (.json/.contract)")
	_ = cmd.MarkFlagRequired("metadata")
	cmd.Flags().SetInterspersed(false)
	return cmd
}
