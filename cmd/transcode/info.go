package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weisyn/contract-transcode/internal/core/transcode"
	"github.com/weisyn/contract-transcode/internal/core/transcode/registry"
)

var infoHeaders = []string{"kind", "label", "selector", "args", "returns", "flags"}

func (c *cli) infoCommand() *cobra.Command {
	var metadataPath string

	cmd := &cobra.Command{
		Use:   "info --metadata <file>",
		Short: "列出合约的构造函数、消息与事件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := c.loader.LoadTranscoder(metadataPath)
			if err != nil {
				return err
			}
			if md := tr.Metadata(); md.Contract != nil {
				c.formatter.PrintInfo(fmt.Sprintf("合约: %s %s", md.Contract.Name, md.Contract.Version))
			}
			return c.formatter.PrintTable(infoHeaders, infoRows(tr))
		},
	}
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "合约元数据文件 (.json/.contract)")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}

// infoRows 构造函数、消息、事件各占一行
func infoRows(tr *transcode.ContractMessageTranscoder) [][]string {
	reg := tr.Registry()
	var rows [][]string

	for _, call := range append(tr.Constructors(), tr.Messages()...) {
		args := make([]string, len(call.Args))
		for i, a := range call.Args {
			args[i] = a.Label + ": " + argType(reg, a.DisplayName, a.Type)
		}
		returns := "-"
		if call.ReturnType != nil {
			returns = typeLabel(reg, *call.ReturnType)
		}
		rows = append(rows, []string{
			call.Kind.String(),
			call.Label,
			call.Selector.String(),
			strings.Join(args, ", "),
			returns,
			callFlags(call),
		})
	}

	for _, ev := range tr.Events() {
		args := make([]string, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = a.Label + ": " + typeLabel(reg, a.Type)
			if a.Indexed {
				args[i] += " (indexed)"
			}
		}
		topic := "-"
		if ev.SignatureTopic != nil {
			topic = ev.SignatureTopic.Hex()
		}
		rows = append(rows, []string{
			"event",
			ev.Label,
			topic,
			strings.Join(args, ", "),
			"-",
			fmt.Sprintf("index=%d", ev.Index),
		})
	}
	return rows
}

func callFlags(call *transcode.Call) string {
	var flags []string
	if call.Mutates {
		flags = append(flags, "mutates")
	}
	if call.Payable {
		flags = append(flags, "payable")
	}
	if call.Default {
		flags = append(flags, "default")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func argType(reg *registry.Registry, displayName string, id registry.TypeID) string {
	if displayName != "" {
		return displayName
	}
	return typeLabel(reg, id)
}

// typeLabel 类型的可读名称：路径优先，其次原语名，否则为种类加 id
func typeLabel(reg *registry.Registry, id registry.TypeID) string {
	ty, err := reg.Resolve(id)
	if err != nil {
		return fmt.Sprintf("#%d", id)
	}
	if len(ty.Path) > 0 {
		return ty.PathString()
	}
	if ty.Def.Kind == registry.DefPrimitive {
		return ty.Def.Primitive.String()
	}
	return fmt.Sprintf("%s#%d", ty.Def.Kind, id)
}
