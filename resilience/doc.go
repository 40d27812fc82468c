// Package resilience retries operations against backends that may not be
// ready yet, such as a database container that is still starting.
//
//	db, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 5,
//	    RetryIf:     database.IsConnectionError,
//	}, func(ctx context.Context) (*gorm.DB, error) {
//	    return gorm.Open(dialector, &gorm.Config{})
//	})
package resilience
