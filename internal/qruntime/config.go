// Package qruntime holds the engine's tunable limits: the various sanity
// bounds and recursion ceilings spec.md describes as "a configured limit"
// without fixing a number, plus the handful of constants it does fix.
package qruntime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits collects the host-tunable ceilings a limits file can set. The
// engine reads ValstackMax, ValstackGrowStep and MaxCCallDepth; the other
// fields are loaded and carried, but nothing in the module reads them.
// Zero-value Limits is invalid; use Defaults() and override from there.
type Limits struct {
	// ValstackMax is the absolute value-stack size limit; push beyond it
	// fails with a RangeError.
	ValstackMax int `yaml:"valstack_max"`
	// ValstackGrowStep is how many slots EnsureStack grows by at a time.
	ValstackGrowStep int `yaml:"valstack_grow_step"`

	// MaxCCallDepth bounds native (Go) call recursion through Handler.Call.
	MaxCCallDepth int `yaml:"max_c_call_depth"`

	// PrototypeChainSanity bounds property lookup and environment record
	// chain walks (spec.md's "~10000" figure).
	PrototypeChainSanity int `yaml:"prototype_chain_sanity"`
	// BoundChainSanity bounds [[Target]] collapse in bound-function calls.
	BoundChainSanity int `yaml:"bound_chain_sanity"`

	// AllocFailGCLimit is a GC-and-retry count for alloc_checked.
	// internal/qheap uses its own AllocFailGCLimit constant (3) instead and
	// returns an AllocError once its retries run out.
	AllocFailGCLimit int `yaml:"alloc_fail_gc_limit"`
	// MarkRecursionLimit bounds recursive mark depth before falling back
	// to the TEMPROOT rescan phase. internal/qheap uses its own
	// markRecursionLimit constant (256) instead.
	MarkRecursionLimit int `yaml:"mark_recursion_limit"`
}

// Defaults returns the engine's built-in limits, used whenever no override
// file is supplied. The prototype/bound-chain sanity figures mirror
// spec.md's own "~10000" callouts; the rest are conservative engineering
// defaults, not spec-mandated constants.
func Defaults() Limits {
	return Limits{
		ValstackMax:          1 << 20,
		ValstackGrowStep:     64,
		MaxCCallDepth:        1000,
		PrototypeChainSanity: 10000,
		BoundChainSanity:     10000,
		AllocFailGCLimit:     3,
		MarkRecursionLimit:   256,
	}
}

// Load reads path as YAML into a Limits starting from Defaults(), so a
// host override file only needs to name the fields it wants to change.
func Load(path string) (Limits, error) {
	l := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("qruntime: reading limits file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Limits{}, fmt.Errorf("qruntime: parsing limits file: %w", err)
	}
	return l, nil
}
