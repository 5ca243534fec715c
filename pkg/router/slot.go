package router

import (
	"golang.org/x/net/html"

	"github.com/go-drift/spa/pkg/dom"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/mvvm"
)

// PlaceholderTag is the element a Slot replaces.
const PlaceholderTag = "router-view"

// Slot is the mount point for route view models. It replaces a
// router-view placeholder and remembers where the placeholder was.
type Slot struct {
	doc      *dom.Document
	parent   *html.Node
	previous *html.Node
	vm       *mvvm.ViewModel
}

// NewSlot removes placeholder from its parent and returns a slot at its
// position.
func NewSlot(doc *dom.Document, placeholder *html.Node) (*Slot, error) {
	if placeholder == nil || placeholder.Parent == nil {
		return nil, &errors.Error{
			Op:   "router.NewSlot",
			Kind: errors.KindRouting,
			Err:  errNoPlaceholder,
		}
	}
	s := &Slot{
		doc:      doc,
		parent:   placeholder.Parent,
		previous: dom.PrevElement(placeholder),
	}
	dom.Detach(placeholder)
	return s, nil
}

// FindPlaceholder returns the first router-view element under root.
func FindPlaceholder(root *html.Node) *html.Node {
	var found *html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Data == PlaceholderTag {
			found = n
			return false
		}
		return true
	})
	return found
}

// Current returns the mounted view model, or nil.
func (s *Slot) Current() *mvvm.ViewModel {
	return s.vm
}

// Mount creates vm if needed, inserts its element at the slot and mounts
// it. Mounting the view model that is already mounted is a no-op; any other
// mounted view model is unmounted first.
func (s *Slot) Mount(vm *mvvm.ViewModel, ctx mvvm.Context) error {
	if s.vm == vm {
		return nil
	}
	s.Unmount()
	if !vm.Created() {
		if err := vm.Create(ctx); err != nil {
			return err
		}
	}
	s.doc.Adopt(vm.Document())

	var before *html.Node
	if s.previous != nil && s.previous.Parent == s.parent {
		before = s.previous.NextSibling
	} else {
		before = s.parent.FirstChild
	}
	dom.Insert(s.parent, before, vm.Element())

	s.vm = vm
	vm.Mount()
	return nil
}

// Unmount detaches the mounted view model and unmounts it.
func (s *Slot) Unmount() {
	if s.vm == nil {
		return
	}
	vm := s.vm
	s.vm = nil
	dom.Detach(vm.Element())
	vm.Unmount()
}
