// Package script loads page models written in Starlark.
//
// A model script defines a data() function returning the initial model and,
// optionally, commands and lifecycle hooks:
//
//	def data():
//	    return {"count": 0}
//
//	def inc(store, event):
//	    store.set("count", store.get("count") + 1)
//
//	commands = {"inc": inc}
//
//	def on_create(store, ctx):
//	    store.set("count", int(ctx["params"].get("start", "0")))
//
// Hooks are on_create(store, ctx), on_mount(store), on_unmount(store) and
// on_destroy(store). Failures inside commands and hooks are reported through
// the errors package; they never panic the run loop.
package script

import (
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/mvvm"
	"github.com/go-drift/spa/pkg/observe"
)

// Option configures Load.
type Option func(*model)

// WithLogger sets the logger used for print() and failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *model) {
		m.logger = l
	}
}

type model struct {
	filename  string
	logger    *slog.Logger
	data      starlark.Callable
	commands  map[string]starlark.Callable
	onCreate  starlark.Callable
	onMount   starlark.Callable
	onUnmount starlark.Callable
	onDestroy starlark.Callable
}

// Load executes a model script and returns a factory building a Model from
// it. src may be anything starlark.ExecFileOptions accepts, or nil to read
// filename.
func Load(filename string, src any, opts ...Option) (mvvm.Factory, error) {
	m := &model{filename: filename}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDefault(m.logger)

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, m.thread("load"), filename, src, nil)
	if err != nil {
		return nil, &errors.Error{Op: "script.Load", Kind: errors.KindConfig, Err: err, Key: filename}
	}

	data, ok := globals["data"].(starlark.Callable)
	if !ok {
		return nil, &errors.Error{
			Op:   "script.Load",
			Kind: errors.KindConfig,
			Err:  fmt.Errorf("%s: data() is not defined", filename),
			Key:  filename,
		}
	}
	m.data = data

	if cmds, ok := globals["commands"]; ok {
		dict, ok := cmds.(*starlark.Dict)
		if !ok {
			return nil, &errors.Error{
				Op:   "script.Load",
				Kind: errors.KindConfig,
				Err:  fmt.Errorf("%s: commands must be a dict, got %s", filename, cmds.Type()),
				Key:  filename,
			}
		}
		m.commands = make(map[string]starlark.Callable, dict.Len())
		for _, item := range dict.Items() {
			name, ok := item[0].(starlark.String)
			fn, callable := item[1].(starlark.Callable)
			if !ok || !callable {
				return nil, &errors.Error{
					Op:   "script.Load",
					Kind: errors.KindConfig,
					Err:  fmt.Errorf("%s: command %s is not a function", filename, item[0]),
					Key:  filename,
				}
			}
			m.commands[string(name)] = fn
		}
	}

	m.onCreate, _ = globals["on_create"].(starlark.Callable)
	m.onMount, _ = globals["on_mount"].(starlark.Callable)
	m.onUnmount, _ = globals["on_unmount"].(starlark.Callable)
	m.onDestroy, _ = globals["on_destroy"].(starlark.Callable)

	// Fail at load time rather than on first navigation.
	if _, err := m.initialData(); err != nil {
		return nil, err
	}
	return m.build, nil
}

func (m *model) thread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: m.filename + ":" + name,
		Print: func(_ *starlark.Thread, msg string) {
			m.logger.Info(msg, "script", m.filename)
		},
	}
}

func (m *model) initialData() (map[string]any, error) {
	v, err := starlark.Call(m.thread("data"), m.data, nil, nil)
	if err != nil {
		return nil, &errors.Error{Op: "script.data", Kind: errors.KindConfig, Err: err, Key: m.filename}
	}
	plain, err := FromStarlark(v)
	if err != nil {
		return nil, &errors.Error{Op: "script.data", Kind: errors.KindConfig, Err: err, Key: m.filename}
	}
	data, ok := plain.(map[string]any)
	if !ok {
		return nil, &errors.TypeError{Op: "script.data", Want: "dict", Got: plain}
	}
	return data, nil
}

// build is the mvvm.Factory.
func (m *model) build() mvvm.Model {
	data, err := m.initialData()
	if err != nil {
		m.report("script.data", err)
		data = map[string]any{}
	}

	model := mvvm.Model{
		Data:     data,
		Commands: make(map[string]observe.Command, len(m.commands)),
	}
	for name, fn := range m.commands {
		model.Commands[name] = func(store *observe.Store, event any) {
			m.call("command "+name, fn, NewStore(store), eventValue(event))
		}
	}
	if m.onCreate != nil {
		model.OnCreate = func(store *observe.Store, ctx mvvm.Context) {
			m.call("on_create", m.onCreate, NewStore(store), contextValue(ctx))
		}
	}
	model.OnMount = m.hook("on_mount", m.onMount)
	model.OnUnmount = m.hook("on_unmount", m.onUnmount)
	model.OnDestroy = m.hook("on_destroy", m.onDestroy)
	return model
}

func (m *model) hook(name string, fn starlark.Callable) func(*observe.Store) {
	if fn == nil {
		return nil
	}
	return func(store *observe.Store) {
		m.call(name, fn, NewStore(store))
	}
}

func (m *model) call(name string, fn starlark.Callable, args ...starlark.Value) {
	if _, err := starlark.Call(m.thread(name), fn, args, nil); err != nil {
		m.report("script."+name, err)
	}
}

func (m *model) report(op string, err error) {
	m.logger.Error("script failed", "script", m.filename, "op", op, "error", err)
	errors.Report(&errors.Error{Op: op, Kind: errors.KindHandler, Err: err, Key: m.filename})
}

func eventValue(event any) starlark.Value {
	ev, ok := event.(dom.Event)
	if !ok {
		return ToStarlark(event)
	}
	target := ""
	if ev.Target != nil {
		target = ev.Target.Data
	}
	return ToStarlark(map[string]any{
		"type":   ev.Type,
		"value":  ev.Value,
		"target": target,
	})
}

func contextValue(ctx mvvm.Context) starlark.Value {
	d := starlark.NewDict(2)
	d.SetKey(starlark.String("params"), ToStarlark(ctx.Params))
	d.SetKey(starlark.String("query"), ToStarlark(ctx.Query))
	return d
}
