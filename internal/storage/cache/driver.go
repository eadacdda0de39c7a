package cache

import (
	"context"
	"github.com/one-edge/portal/internal/hashmap"
	"github.com/one-edge/portal/internal/storage"
	"github.com/one-edge/portal/internal/user"
	"time"
)

const cleanupInterval = 10 * time.Second

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	lifetime   time.Duration
	users      *UserRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver whose cached values live for the given lifetime
func New(underlying storage.Driver, lifetime time.Duration) *Driver {
	return &Driver{
		underlying: underlying,
		lifetime:   lifetime,
	}
}

// Initialize initializes the underlying driver and the caching repositories
func (driver *Driver) Initialize(ctx context.Context) error {
	if err := driver.underlying.Initialize(ctx); err != nil {
		return err
	}

	userCache := hashmap.NewExpiring[string, *user.User](driver.lifetime)
	userCache.ScheduleCleanupTask(cleanupInterval)
	driver.users = &UserRepository{
		repo:  driver.underlying.Users(),
		cache: userCache,
	}
	return nil
}

// Users provides the caching user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Close stops the caching repositories and closes the underlying driver
func (driver *Driver) Close() {
	if driver.users != nil {
		driver.users.cache.StopCleanupTask()
		driver.users = nil
	}
	driver.underlying.Close()
}
