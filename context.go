package napihost

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/napi-go/napihost/config"
	"github.com/napi-go/napihost/logging"
)

// Context is spec.md §4.3's process-wide environment registry keyed by
// environment id. cmd/napishim creates and destroys environments through it;
// its per-call dispatch resolves the environment from the napi_env handle
// and does not go through Lookup. Grounded on eventloop's own atomic ID-counter-plus-
// registration pattern, generalized from "one loop" to "one environment per
// registered id".
type Context struct {
	cfg *config.Config
	log *logging.Logger

	nextID atomic.Uint32

	mu   sync.RWMutex
	envs map[uint32]*Environment
}

// NewContext creates an empty environment registry. cfg/log may be nil.
func NewContext(cfg *config.Config, log *logging.Logger) *Context {
	return &Context{
		cfg:  cfg,
		log:  log,
		envs: make(map[uint32]*Environment),
	}
}

// CreateEnvironment allocates a fresh id, constructs an Environment, and
// registers it.
func (c *Context) CreateEnvironment() *Environment {
	id := c.nextID.Add(1)
	env := NewEnvironment(id, c.cfg, c.log)
	c.mu.Lock()
	c.envs[id] = env
	c.mu.Unlock()
	return env
}

// Lookup resolves an environment id to its Environment.
func (c *Context) Lookup(id uint32) (*Environment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	env, ok := c.envs[id]
	return env, ok
}

// Destroy removes and tears down the environment registered under id.
func (c *Context) Destroy(ctx context.Context, id uint32) error {
	c.mu.Lock()
	env, ok := c.envs[id]
	if ok {
		delete(c.envs, id)
	}
	c.mu.Unlock()
	if !ok {
		return ErrEnvClosed
	}
	return env.Close(ctx)
}

// Len reports the number of currently registered environments; a diagnostic.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.envs)
}
