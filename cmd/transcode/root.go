package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/weisyn/contract-transcode/client/core/output"
	"github.com/weisyn/contract-transcode/internal/config"
	"github.com/weisyn/contract-transcode/internal/core/artifacts"
	logimpl "github.com/weisyn/contract-transcode/internal/core/infrastructure/log"
	configiface "github.com/weisyn/contract-transcode/pkg/interfaces/config"
	"github.com/weisyn/contract-transcode/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式
}

// reportedError 已经通过格式化器输出过的错误，退出时不再重复打印
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// cli 一次命令执行的上下文
type cli struct {
	flags  GlobalFlags
	stdout io.Writer
	stderr io.Writer

	app       *fx.App
	formatter *output.Formatter
	loader    *artifacts.Loader
	logger    log.Logger
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr}
}

// run 执行命令行并返回进程退出码
func run(args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	defer c.shutdown()

	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(stderr, "错误: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "transcode",
		Short: "合约调用数据与事件的 SCALE 转码工具",
		Long: `transcode 根据 ink! 合约元数据在文本值与 SCALE 字节之间转换

- encode:    消息/构造函数名 + 参数 → 调用数据
- decode:    调用数据、事件数据、返回值 → 文本值
- info:      列出合约的构造函数、消息与事件
- env-check: 比较节点与合约的环境类型
- scon:      格式化文本值`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.flags.ConfigPath, "config", "", "配置文件路径 (JSON)")
	root.PersistentFlags().StringVarP(&c.flags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|table|text")
	root.PersistentFlags().BoolVar(&c.flags.Silent, "silent", false, "静默模式 (仅输出结果)")
	root.PersistentFlags().BoolVarP(&c.flags.Verbose, "verbose", "v", false, "详细模式 (输出调试日志)")

	root.AddCommand(
		c.encodeCommand(),
		c.decodeCommand(),
		c.infoCommand(),
		c.envCheckCommand(),
		c.sconCommand(),
	)
	return root
}

// setup 初始化格式化器并装配配置、日志与产物加载模块
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(c.flags.OutputFormat)
	if err != nil {
		return err
	}
	c.formatter = output.NewFormatter(format, c.stdout)
	c.formatter.SetLogWriter(c.stderr)
	c.formatter.SetSilent(c.flags.Silent)

	appConfig, err := config.LoadAppConfig(c.flags.ConfigPath)
	if err != nil {
		return err
	}
	if c.flags.Verbose {
		if appConfig.Log == nil {
			appConfig.Log = &types.UserLogConfig{}
		}
		appConfig.Log.Level = types.StringPtr(string(log.DebugLevel))
	}

	app := fx.New(
		fx.NopLogger,
		fx.Provide(func() configiface.AppOptions { return config.NewAppOptions(appConfig) }),
		config.Module(),
		logimpl.Module(),
		artifacts.Module(),
		fx.Populate(&c.loader, &c.logger),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	if err := app.Start(cmd.Context()); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	c.app = app
	c.logger.Debugf("命令开始 command=%s", cmd.CommandPath())
	return nil
}

func (c *cli) shutdown() {
	if c.app != nil {
		_ = c.app.Stop(context.Background())
	}
}

// parseHex 解析十六进制数据，0x 前缀可省略
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}
