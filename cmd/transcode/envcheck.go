package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/contract-transcode/internal/core/transcode/envcheck"
)

// EnvCheckOutput 环境检查结果
type EnvCheckOutput struct {
	Compatible bool   `json:"compatible"`
	Source     string `json:"source"` // 合约侧比较对象：registry 或 spec
}

func (c *cli) envCheckCommand() *cobra.Command {
	var nodePath, metadataPath string

	cmd := &cobra.Command{
		Use:   "env-check --node <file> --metadata <file>",
		Short: "比较节点与合约的环境类型",
		Long: `读取节点类型注册表中的 Environment 结构体，与合约侧逐字段比较（hasher 除外）。
合约注册表包含 Environment 时直接比较，否则使用元数据的 spec.environment。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			node, err := c.loader.LoadRegistry(nodePath)
			if err != nil {
				return err
			}
			tr, err := c.loader.LoadTranscoder(metadataPath)
			if err != nil {
				return err
			}

			contract := tr.Registry()
			source := "registry"
			if envcheck.HasEnvironment(contract) {
				err = envcheck.Check(node, contract)
			} else {
				source = "spec"
				err = envcheck.CheckSpec(node, contract, tr.Metadata().Spec.Environment)
			}
			if err != nil {
				return err
			}

			c.formatter.PrintSuccess("节点与合约的环境类型一致")
			return c.formatter.Print(EnvCheckOutput{Compatible: true, Source: source})
		},
	}
	cmd.Flags().StringVar(&nodePath, "node", "", "节点类型注册表文件 (JSON)")
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "合约元数据文件 (.json/.contract)")
	_ = cmd.MarkFlagRequired("node")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}
