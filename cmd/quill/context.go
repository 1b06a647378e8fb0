package main

import (
	"strings"
	"sync"

	"quill/internal/api"
	"quill/internal/config"
)

type commandContext struct {
	configFlag  *string
	addressFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, addressFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		addressFlag: addressFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds a control client from the --address flag or the
// configured bind address.
func (c *commandContext) client() (*api.Client, error) {
	address := ""
	if c.addressFlag != nil {
		address = strings.TrimSpace(*c.addressFlag)
	}
	token := ""
	cfg, err := c.ensureConfig()
	if err != nil {
		if address == "" {
			return nil, err
		}
	} else {
		if address == "" {
			address = cfg.Paths.APIBind
		}
		token = cfg.Paths.APIToken
	}
	return api.NewClient(address, token), nil
}
