package abi

import (
	"context"

	"github.com/napi-go/napihost"
)

// newTestEnv builds a fresh environment for a single test, with a top-level
// handle scope already open: every handle-producing op requires one (spec.md
// §4.2), the way a native addon's call-in from the host always runs inside
// one. closeTestEnv tears it down (including its host loop goroutine) at test
// end.
func newTestEnv() *napihost.Environment {
	env := napihost.NewEnvironment(1, nil, nil)
	env.OpenScope(false)
	return env
}

func closeTestEnv(env *napihost.Environment) {
	_ = env.Close(context.Background())
}
