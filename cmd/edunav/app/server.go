// Package app 构建 edunav-qa 命令。
package app

import (
	"github.com/kart-io/logger"

	"github.com/kart-io/edunav/cmd/edunav/app/options"
	"github.com/kart-io/edunav/internal/qa"
	"github.com/kart-io/edunav/pkg/app"
)

const commandDesc = `The edunav-qa server answers questions over indexed course material.
It retrieves relevant passages from every configured content source,
assembles them into a labeled context, and generates a grounded answer
with a single LLM call.`

// NewApp 创建 edunav-qa 应用。
func NewApp() *app.App {
	opts := options.NewOptions()

	return app.NewApp(
		app.WithName("edunav-qa"),
		app.WithShortDescription("Retrieval backed question answering service"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run 返回服务启动函数。
func run(opts *options.Options) app.RunFunc {
	return func() error {
		// 日志必须最先初始化，后续组件都依赖全局 logger
		if err := opts.Log.Init(); err != nil {
			return err
		}

		logger.Infow("starting edunav-qa",
			"backend", opts.QA.Backend,
			"sources", opts.QA.Sources,
			"embed_provider", opts.Embedding.Provider,
			"chat_provider", opts.Chat.Provider,
		)

		server, err := qa.NewServer(opts.ServerConfig())
		if err != nil {
			return err
		}

		return server.Run()
	}
}
