package launch

import (
	"strings"
)

type opKind int

const (
	opSet opKind = iota
	opUnset
	opPrepend
)

type overlayOp struct {
	kind  opKind
	key   string
	value string
	dirs  []string
}

// Overlay is an ordered set of environment edits applied to a copy of a base
// environment for one child process. It never touches the caller's process
// environment.
type Overlay struct {
	goos string
	ops  []overlayOp
}

func NewOverlay(goos string) *Overlay {
	return &Overlay{goos: goos}
}

func (o *Overlay) Set(key, value string) *Overlay {
	o.ops = append(o.ops, overlayOp{kind: opSet, key: key, value: value})
	return o
}

func (o *Overlay) Unset(key string) *Overlay {
	o.ops = append(o.ops, overlayOp{kind: opUnset, key: key})
	return o
}

// PrependPath puts dirs, in the given order, ahead of every existing entry of
// the list variable key.
func (o *Overlay) PrependPath(key string, dirs ...string) *Overlay {
	kept := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d != "" {
			kept = append(kept, d)
		}
	}
	o.ops = append(o.ops, overlayOp{kind: opPrepend, key: key, dirs: kept})
	return o
}

// Apply returns base with every edit applied. base is not modified.
func (o *Overlay) Apply(base []string) []string {
	env := append([]string(nil), base...)
	for _, op := range o.ops {
		idx := o.find(env, op.key)
		switch op.kind {
		case opSet:
			env = o.put(env, idx, op.key, op.value)
		case opUnset:
			for idx >= 0 {
				env = append(env[:idx], env[idx+1:]...)
				idx = o.find(env, op.key)
			}
		case opPrepend:
			if len(op.dirs) == 0 {
				continue
			}
			value := strings.Join(op.dirs, o.listSeparator())
			key := op.key
			if idx >= 0 {
				k, existing, _ := strings.Cut(env[idx], "=")
				key = k
				if existing != "" {
					value += o.listSeparator() + existing
				}
			}
			env = o.put(env, idx, key, value)
		}
	}
	return env
}

// Lookup returns the value of key in env using the overlay's platform rules.
func (o *Overlay) Lookup(env []string, key string) (string, bool) {
	idx := o.find(env, key)
	if idx < 0 {
		return "", false
	}
	_, v, _ := strings.Cut(env[idx], "=")
	return v, true
}

func (o *Overlay) put(env []string, idx int, key, value string) []string {
	kv := key + "=" + value
	if idx >= 0 {
		env[idx] = kv
		return env
	}
	return append(env, kv)
}

// find returns the index of the last definition of key, which is the one
// os/exec passes on. Windows variable names are case-insensitive.
func (o *Overlay) find(env []string, key string) int {
	for i := len(env) - 1; i >= 0; i-- {
		k, _, ok := strings.Cut(env[i], "=")
		if !ok {
			continue
		}
		if k == key || (o.goos == "windows" && strings.EqualFold(k, key)) {
			return i
		}
	}
	return -1
}

func (o *Overlay) listSeparator() string {
	if o.goos == "windows" {
		return ";"
	}
	return ":"
}
