package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/time/rate"

	"github.com/hupe1980/reactmesh/logging"
	"github.com/hupe1980/reactmesh/model"
	"github.com/hupe1980/reactmesh/model/anthropic"
	"github.com/hupe1980/reactmesh/model/gemini"
	"github.com/hupe1980/reactmesh/model/openai"
	"github.com/hupe1980/reactmesh/tool"
	"github.com/hupe1980/reactmesh/tool/browse"
	"github.com/hupe1980/reactmesh/tool/script"
	"github.com/hupe1980/reactmesh/tool/search"
)

// NewModel builds the completion transport selected by cfg.Provider.
func NewModel(ctx context.Context, cfg Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = sdkanthropic.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	case "gemini":
		m, err := gemini.NewModel(ctx, cfg.APIKey, func(o *gemini.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = float32(cfg.Temperature)
			o.MaxOutputTokens = int32(cfg.MaxTokens)
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "mock":
		return model.NewMockModel("mock", 8).WithFallback("Thought: I am a scripted model.\nAnswer: This is a mock answer."), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewTools instantiates the built-in tools named in cfg.Tools.
func NewTools(cfg Config) ([]tool.Tool, error) {
	tools := make([]tool.Tool, 0, len(cfg.Tools))
	for _, name := range cfg.Tools {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "search":
			tools = append(tools, search.New())
		case "browse":
			tools = append(tools, browse.New())
		case "eval":
			tools = append(tools, script.New())
		default:
			return nil, fmt.Errorf("unknown tool %q", name)
		}
	}
	return tools, nil
}

// DispatcherOptions translates the tool settings of cfg.
func DispatcherOptions(cfg Config) func(o *tool.DispatcherOptions) {
	return func(o *tool.DispatcherOptions) {
		if cfg.ToolTimeout > 0 {
			o.Timeout = cfg.ToolTimeout
		}
		if cfg.ToolRate > 0 {
			o.Limiter = rate.NewLimiter(rate.Limit(cfg.ToolRate), 1)
		}
	}
}

// NewLogger builds the logger selected by cfg. The returned closer flushes
// and releases log files.
func NewLogger(cfg LogConfig, out io.Writer) (logging.Logger, func() error) {
	if out == nil {
		out = os.Stderr
	}
	level := logging.ParseLevel(cfg.Level)

	var file *logging.FileConfig
	if cfg.File != "" {
		file = &logging.FileConfig{
			Path:       cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
		}
	}

	if cfg.Backend == "zap" {
		z := logging.NewZapLogger(logging.ZapConfig{
			Level:  level,
			Format: cfg.Format,
			Output: out,
			File:   file,
			Name:   "reactmesh",
		})
		return logging.NewZapAdapter(z), func() error {
			_ = z.Sync()
			return nil
		}
	}

	closer := func() error { return nil }
	if file != nil {
		rotating := logging.NewRotatingFile(*file)
		out = io.MultiWriter(out, rotating)
		closer = rotating.Close
	}

	lc := logging.DefaultLoggerConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.Output = out
	lc.AddSource = false
	lc.Component = "cli"

	return logging.NewLogger(lc), closer
}
