package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tubescribe/internal/config"
)

type globalFlags struct {
	configPath  string
	outputDir   string
	cacheDir    string
	model       string
	language    string
	languageSet bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) options() []config.Option {
	opts := []config.Option{
		config.WithOutputDir(c.flags.outputDir),
		config.WithModelCacheDir(c.flags.cacheDir),
		config.WithModel(c.flags.model),
	}
	if c.flags.languageSet {
		opts = append(opts, config.WithLanguage(c.flags.language))
	}
	return opts
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.configPath), c.options()...)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
