package directive

import (
	"log/slog"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/observe"
)

// binding holds the state every variant shares.
type binding struct {
	scope    Scope
	expr     string
	store    *observe.Store
	off      func()
	listener dom.ListenerID
	event    string
	logger   *slog.Logger
}

func newBinding(scope Scope, expr string) binding {
	return binding{scope: scope, expr: expr, logger: logging.OrDefault(scope.Logger)}
}

func (b *binding) Expression() string {
	return b.expr
}

func (b *binding) listen(event string, fn dom.Listener) {
	b.event = event
	b.listener = b.scope.Doc.On(b.scope.Node, event, fn)
}

func (b *binding) subscribe(render func() error) {
	b.off = b.store.OnChange(b.expr, func(*observe.ChangeEvent) {
		if err := render(); err != nil {
			b.logger.Warn("directive render failed", "path", b.expr, "error", err)
		}
	})
}

func (b *binding) Unbind() {
	if b.off != nil {
		b.off()
		b.off = nil
	}
	if b.listener != 0 {
		b.scope.Doc.RemoveListener(b.scope.Node, b.listener)
		b.listener = 0
	}
	b.store = nil
}

func (b *binding) report(op string, kind errors.ErrorKind, err error) {
	b.logger.Warn("directive failed", "op", op, "expr", b.expr, "error", err)
	errors.Report(&errors.Error{Op: op, Kind: kind, Err: err, Key: b.expr})
}

// Text renders a key-path into the node text.
type Text struct {
	binding
}

// NewText creates a text directive.
func NewText(scope Scope, expr string) Directive {
	return &Text{binding: newBinding(scope, expr)}
}

// Kind returns KindText.
func (d *Text) Kind() Kind { return KindText }

// Bind implements Directive.
func (d *Text) Bind(store *observe.Store) error {
	d.store = store
	if err := d.render(); err != nil {
		d.store = nil
		return err
	}
	d.subscribe(d.render)
	d.logger.Debug("directive bound", "kind", d.Kind(), "path", d.expr)
	return nil
}

func (d *Text) render() error {
	v, err := d.store.Get(d.expr)
	if err != nil {
		return err
	}
	dom.SetText(d.scope.Node, format(v))
	return nil
}

// InputBind keeps a form field and a key-path in sync. Input events write
// back to the store synchronously; the store change then flows back to the
// field on a later tick.
type InputBind struct {
	binding
}

// NewInputBind creates a two-way binding directive.
func NewInputBind(scope Scope, expr string) Directive {
	return &InputBind{binding: newBinding(scope, expr)}
}

// Kind returns KindBind.
func (d *InputBind) Kind() Kind { return KindBind }

// Bind implements Directive.
func (d *InputBind) Bind(store *observe.Store) error {
	d.store = store
	if err := d.render(); err != nil {
		d.store = nil
		return err
	}
	d.subscribe(d.render)
	d.listen("input", func(ev dom.Event) {
		if d.store == nil {
			return
		}
		if err := d.store.Set(d.expr, ev.Value); err != nil {
			d.report("directive.bind", errors.KindPropertyAccess, err)
		}
	})
	d.logger.Debug("directive bound", "kind", d.Kind(), "path", d.expr)
	return nil
}

func (d *InputBind) render() error {
	v, err := d.store.Get(d.expr)
	if err != nil {
		return err
	}
	dom.SetValue(d.scope.Node, format(v))
	return nil
}

// Click calls a store command when the node is clicked.
type Click struct {
	binding
}

// NewClick creates a click directive.
func NewClick(scope Scope, expr string) Directive {
	return &Click{binding: newBinding(scope, expr)}
}

// Kind returns KindClick.
func (d *Click) Kind() Kind { return KindClick }

// Bind implements Directive. Unknown commands are reported when clicked,
// not at bind time, since commands may be defined after compilation.
func (d *Click) Bind(store *observe.Store) error {
	d.store = store
	d.listen("click", func(ev dom.Event) {
		if d.store == nil {
			return
		}
		if err := d.store.Call(d.expr, ev); err != nil {
			d.report("directive.click", errors.KindHandler, err)
		}
	})
	d.logger.Debug("directive bound", "kind", d.Kind(), "command", d.expr)
	return nil
}
