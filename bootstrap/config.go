package bootstrap

import (
	"github.com/kbukum/ledgerflow/config"
)

// Config is satisfied by any struct embedding config.ServiceConfig that
// also defines ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
