package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/weisyn/contract-transcode/client/core/output"
	"github.com/weisyn/contract-transcode/internal/core/transcode"
	"github.com/weisyn/contract-transcode/internal/core/transcode/codec"
	"github.com/weisyn/contract-transcode/internal/core/transcode/scon"
)

// decodeFlags decode 子命令共用的标志
type decodeFlags struct {
	metadata    string
	data        string
	name        string
	topic       string
	constructor bool
}

// decodeFunc 在已加载的转码器上执行一次解码，返回入口名与值
type decodeFunc func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error)

func (c *cli) decodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "解码调用数据、事件或返回值",
	}

	cmd.AddCommand(
		c.decodeSubcommand("call", "解码调用数据（先匹配消息，再匹配构造函数）",
			func(f *decodeFlags) decodeFunc {
				return func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error) {
					return tr.DecodeCall(data)
				}
			}),
		c.decodeSubcommand("message", "按消息表解码调用数据",
			func(f *decodeFlags) decodeFunc {
				return func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error) {
					v, err := tr.DecodeMessage(data)
					return v.Ident(), v, err
				}
			}),
		c.decodeSubcommand("constructor", "按构造函数表解码调用数据",
			func(f *decodeFlags) decodeFunc {
				return func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error) {
					v, err := tr.DecodeConstructor(data)
					return v.Ident(), v, err
				}
			}),
		c.decodeSubcommand("event", "解码事件数据；指定 --topic 时按签名主题定位事件",
			func(f *decodeFlags) decodeFunc {
				return func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error) {
					if f.topic == "" {
						return tr.DecodeEvent(data)
					}
					topic, err := parseTopic(f.topic)
					if err != nil {
						return "", scon.Value{}, err
					}
					return tr.DecodeEventByTopic(topic, data)
				}
			}),
		c.decodeSubcommand("return", "按 --name 指定的消息（或 --constructor 构造函数）解码返回值",
			func(f *decodeFlags) decodeFunc {
				return func(tr *transcode.ContractMessageTranscoder, data []byte) (string, scon.Value, error) {
					var v scon.Value
					var err error
					if f.constructor {
						v, err = tr.DecodeConstructorReturn(f.name, data)
					} else {
						v, err = tr.DecodeMessageReturn(f.name, data)
					}
					return f.name, v, err
				}
			}),
	)
	return cmd
}

func (c *cli) decodeSubcommand(use, short string, build func(*decodeFlags) decodeFunc) *cobra.Command {
	flags := &decodeFlags{}
	decode := build(flags)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := c.loader.LoadTranscoder(flags.metadata)
			if err != nil {
				return err
			}
			data, err := parseHex(flags.data)
			if err != nil {
				return err
			}
			name, v, err := decode(tr, data)
			if err != nil {
				return c.reportDecodeFailure(use, data, err)
			}
			c.logger.Debugf("解码完成 kind=%s name=%s", use, name)
			return c.formatter.PrintValue(name, v)
		},
	}
	cmd.Flags().StringVarP(&flags.metadata, "metadata", "m", "", "合约元数据文件 (.json/.contract)")
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "待解码数据 (十六进制)")
	_ = cmd.MarkFlagRequired("metadata")
	_ = cmd.MarkFlagRequired("data")

	switch use {
	case "event":
		cmd.Flags().StringVar(&flags.topic, "topic", "", "事件签名主题 (32 字节十六进制)")
	case "return":
		cmd.Flags().StringVarP(&flags.name, "name", "n", "", "消息或构造函数名")
		cmd.Flags().BoolVar(&flags.constructor, "constructor", false, "按构造函数解码返回值")
		_ = cmd.MarkFlagRequired("name")
	}
	return cmd
}

// reportDecodeFailure 解码失败时输出错误种类与原始十六进制
func (c *cli) reportDecodeFailure(kind string, data []byte, err error) error {
	code := "decode_failed"
	if k := codec.Kind(err); k != nil {
		code = strings.ReplaceAll(k.Error(), " ", "_")
	}
	c.logger.Debugf("解码失败 kind=%s code=%s", kind, code)
	details := map[string]string{"kind": kind, "raw": hexutil.Encode(data)}

	if c.formatter.Format() == output.FormatText {
		_ = c.formatter.Print(fmt.Sprintf("%s: %v\nraw: %s", code, err, details["raw"]))
	} else {
		_ = c.formatter.Print(output.NewErrorOutput(code, err.Error(), details))
	}
	c.formatter.PrintError(err)
	return &reportedError{err: err}
}

func parseTopic(s string) (common.Hash, error) {
	b, err := parseHex(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("topic must be %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
