package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"adscope/internal/api"
	"adscope/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
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

// baseURL resolves the daemon address: the --address flag wins, otherwise the
// configured bind address is assumed reachable over plain HTTP.
func (c *commandContext) baseURL() (string, error) {
	if c.addressFlag != nil {
		if addr := strings.TrimSpace(*c.addressFlag); addr != "" {
			if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
				return addr, nil
			}
			return "http://" + addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Paths.APIBind, nil
}

func (c *commandContext) client() (*api.Client, error) {
	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}
	return api.NewClient(base, &http.Client{Timeout: 5 * time.Minute}), nil
}
