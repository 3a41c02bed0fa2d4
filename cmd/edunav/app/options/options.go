// Package options 汇总 edunav-qa 服务的全部配置项。
package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/edunav/internal/qa"
	"github.com/kart-io/edunav/pkg/app"
	cacheopts "github.com/kart-io/edunav/pkg/options/cache"
	llmopts "github.com/kart-io/edunav/pkg/options/llm"
	loggeropts "github.com/kart-io/edunav/pkg/options/logger"
	milvusopts "github.com/kart-io/edunav/pkg/options/milvus"
	qaopts "github.com/kart-io/edunav/pkg/options/qa"
	httpopts "github.com/kart-io/edunav/pkg/options/server/http"
)

var _ app.CliOptions = (*Options)(nil)

// Options 服务的聚合配置。
type Options struct {
	QA        *qaopts.Options          `json:"qa" mapstructure:"qa"`
	Milvus    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	Chat      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	Cache     *cacheopts.Options       `json:"cache" mapstructure:"cache"`
	HTTP      *httpopts.Options        `json:"http" mapstructure:"http"`
	Log       *loggeropts.Options      `json:"log" mapstructure:"log"`
}

// NewOptions 创建带默认值的聚合配置。
func NewOptions() *Options {
	return &Options{
		QA:        qaopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		Cache:     cacheopts.NewOptions(),
		HTTP:      httpopts.NewOptions(),
		Log:       loggeropts.NewOptions(),
	}
}

// AddFlags 注册全部命令行参数。
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.QA.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.Cache.AddFlags(fs)
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Validate 校验全部配置项。
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.QA.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.Cache.Validate()...)
	errs = append(errs, o.HTTP.Validate()...)
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	// Milvus 配置只在使用 milvus 后端时校验
	if o.QA.Backend == qaopts.BackendMilvus {
		errs = append(errs, o.Milvus.Validate()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs)
	}
	return nil
}

// Complete 填充派生默认值。
func (o *Options) Complete() error {
	if err := o.QA.Complete(); err != nil {
		return err
	}
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Chat.Complete(); err != nil {
		return err
	}
	if err := o.Cache.Complete(); err != nil {
		return err
	}
	if err := o.HTTP.Complete(); err != nil {
		return err
	}
	return o.Log.Complete()
}

// ServerConfig 转换为服务装配配置。
func (o *Options) ServerConfig() *qa.Config {
	return &qa.Config{
		QA:        o.QA,
		Milvus:    o.Milvus,
		Embedding: o.Embedding,
		Chat:      o.Chat,
		Cache:     o.Cache,
		HTTP:      o.HTTP,
	}
}
