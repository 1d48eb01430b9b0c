package datasource

import (
	"context"
	"fmt"

	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/retry"
)

// adapterConstructor builds a DataSource for one driver.
type adapterConstructor func(ctx context.Context, cfg *config.SourceConfig) (DataSource, error)

// constructors is populated by the driver packages via Register.
var constructors = map[string]adapterConstructor{}

// Register makes a driver available to New. Called from driver package
// init functions.
func Register(driver string, constructor adapterConstructor) {
	constructors[driver] = constructor
}

// New creates a DataSource for the configured driver. The caller must
// import the driver package (postgres or mssql) for its side-effect
// registration. Transient connection failures are retried with
// exponential backoff.
func New(ctx context.Context, cfg *config.SourceConfig) (DataSource, error) {
	constructor, ok := constructors[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported source driver: %q", cfg.Driver)
	}
	return retry.DoWithResult(ctx, retry.DefaultConfig(), func() (DataSource, error) {
		return constructor(ctx, cfg)
	})
}
