// Package autoload initializes the global logger from the LOG_* environment
// on import. Import it for side effect from main.
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/voxline/voxline/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}
