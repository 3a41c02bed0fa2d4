// Package qa provides question-answering pipeline configuration options.
package qa

import (
	"fmt"
	"path/filepath"

	"github.com/kart-io/edunav/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Backend 取值。
const (
	// BackendMilvus 每个来源对应一个 Milvus 集合。
	BackendMilvus = "milvus"
	// BackendSnapshot 每个来源对应一个本地快照索引文件。
	BackendSnapshot = "snapshot"
)

// DefaultPromptTemplate is the prompt used to ground answers in retrieved context.
const DefaultPromptTemplate = `Please answer the questions based on the following content and your own judgment:
{{context}}
Question: {{question}}`

// Options contains question-answering pipeline configuration.
type Options struct {
	// Sources 配置的内容来源列表。
	Sources []string `json:"sources" mapstructure:"sources"`

	// Locations 按来源指定存储位置（milvus 集合名或快照文件路径）。
	// 未指定的来源使用默认位置。
	Locations map[string]string `json:"locations" mapstructure:"locations"`

	// Backend 向量索引后端（milvus|snapshot）。
	Backend string `json:"backend" mapstructure:"backend"`

	// SnapshotDir 快照后端的索引文件目录。
	SnapshotDir string `json:"snapshot-dir" mapstructure:"snapshot-dir"`

	// AllowUntrustedSnapshots 允许反序列化本地快照索引文件。
	// 快照文件来自外部构建流程，属于信任边界，必须显式开启。
	AllowUntrustedSnapshots bool `json:"allow-untrusted-snapshots" mapstructure:"allow-untrusted-snapshots"`

	// TopK 每个来源返回的检索结果数量。
	TopK int `json:"top-k" mapstructure:"top-k"`

	// PassageLimit 单条检索文本并入上下文前的最大字符数。
	PassageLimit int `json:"passage-limit" mapstructure:"passage-limit"`

	// PromptTemplate 回答生成使用的提示词模板，
	// 必须包含 {{context}} 和 {{question}} 占位符。
	PromptTemplate string `json:"prompt-template" mapstructure:"prompt-template"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Sources:        []string{"youtube", "website", "pdf", "pptx"},
		Locations:      map[string]string{},
		Backend:        BackendMilvus,
		SnapshotDir:    "_output/qa-indexes",
		TopK:           4,
		PassageLimit:   2000,
		PromptTemplate: DefaultPromptTemplate,
	}
}

// AddFlags adds flags for QA options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.Sources, options.Join(prefixes...)+"qa.sources", o.Sources, "Content sources to load retrievers for.")
	fs.StringToStringVar(&o.Locations, options.Join(prefixes...)+"qa.locations", o.Locations, "Per-source storage location overrides.")
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"qa.backend", o.Backend, "Vector index backend (milvus|snapshot).")
	fs.StringVar(&o.SnapshotDir, options.Join(prefixes...)+"qa.snapshot-dir", o.SnapshotDir, "Directory containing snapshot index files.")
	fs.BoolVar(&o.AllowUntrustedSnapshots, options.Join(prefixes...)+"qa.allow-untrusted-snapshots", o.AllowUntrustedSnapshots, "Allow deserializing local snapshot index files (explicit opt-in).")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"qa.top-k", o.TopK, "Number of results per source from similarity search.")
	fs.IntVar(&o.PassageLimit, options.Join(prefixes...)+"qa.passage-limit", o.PassageLimit, "Maximum characters per retrieved passage.")
	fs.StringVar(&o.PromptTemplate, options.Join(prefixes...)+"qa.prompt-template", o.PromptTemplate, "Prompt template with {{context}} and {{question}} placeholders.")
}

// Location returns the storage location for a source, applying defaults.
func (o *Options) Location(source string) string {
	if loc, ok := o.Locations[source]; ok && loc != "" {
		return loc
	}
	if o.Backend == BackendSnapshot {
		return filepath.Join(o.SnapshotDir, source+".snapshot")
	}
	return "edunav_" + source
}

// Validate validates the QA options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if len(o.Sources) == 0 {
		errs = append(errs, fmt.Errorf("qa.sources must not be empty"))
	}
	seen := map[string]bool{}
	for _, s := range o.Sources {
		if s == "" {
			errs = append(errs, fmt.Errorf("qa.sources contains an empty source name"))
			continue
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("qa.sources contains duplicate source %q", s))
		}
		seen[s] = true
	}
	if o.Backend != BackendMilvus && o.Backend != BackendSnapshot {
		errs = append(errs, fmt.Errorf("qa.backend must be %q or %q", BackendMilvus, BackendSnapshot))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("qa.top-k must be positive"))
	}
	if o.PassageLimit <= 0 {
		errs = append(errs, fmt.Errorf("qa.passage-limit must be positive"))
	}
	return errs
}

// Complete completes the QA options with defaults.
func (o *Options) Complete() error {
	if o.Locations == nil {
		o.Locations = map[string]string{}
	}
	if o.PromptTemplate == "" {
		o.PromptTemplate = DefaultPromptTemplate
	}
	return nil
}
