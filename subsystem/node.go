/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package subsystem

import (
	"context"
	"fmt"

	libctx "github.com/sabouaram/svckernel/context"
	"github.com/sabouaram/svckernel/clock"
)

// Component is anything a Node can register and drive as a child: the
// start/stop/status surface a *Runner already satisfies.
type Component interface {
	Start(ctx context.Context) error
	Stop(timeout clock.Timeout) error
	IsRunning() bool
	Uptime() clock.Timeout
}

// Node composes named children into a tree. It is itself a Component:
// starting a Node starts every child, stopping it stops every child in
// no particular order (best-effort - the first error is remembered but
// every child still gets a Stop call).
type Node struct {
	name     string
	parent   *Node
	children libctx.Config[string]
}

// NewNode builds a root Node with the given name and no parent.
func NewNode(name string) *Node {
	return &Node{
		name:     name,
		children: libctx.New[string](context.Background()),
	}
}

// Name returns the node's registration name.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the enclosing Node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Add registers a child Component under name. Returns ErrorDuplicateChild
// if the name is already taken.
func (n *Node) Add(name string, child Component) error {
	if name == "" || child == nil {
		return ErrorParamsEmpty.Error(nil)
	}

	if _, loaded := n.children.LoadOrStore(name, child); loaded {
		return ErrorDuplicateChild.Error(nil)
	}

	if sub, ok := child.(*Node); ok {
		sub.parent = n
	}

	return nil
}

// Remove unregisters the child with the given name.
func (n *Node) Remove(name string) {
	n.children.Delete(name)
}

// Get returns the child registered under name, if any.
func (n *Node) Get(name string) (Component, bool) {
	v, ok := n.children.Load(name)
	if !ok {
		return nil, false
	}
	c, ok := v.(Component)
	return c, ok
}

// Walk calls fn for every direct child, in no particular order.
func (n *Node) Walk(fn func(name string, child Component)) {
	n.children.Walk(func(key string, val interface{}) bool {
		if c, ok := val.(Component); ok {
			fn(key, c)
		}
		return true
	})
}

// Path returns the dotted path from the root Node to this one.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	return fmt.Sprintf("%s.%s", n.parent.Path(), n.name)
}

// Start starts every registered child. The first error encountered is
// returned after every child has been attempted.
func (n *Node) Start(ctx context.Context) error {
	var first error
	n.Walk(func(_ string, child Component) {
		if err := child.Start(ctx); err != nil && first == nil {
			first = err
		}
	})
	return first
}

// Stop stops every registered child, each bounded by timeout. The first
// error encountered is returned after every child has been attempted.
func (n *Node) Stop(timeout clock.Timeout) error {
	var first error
	n.Walk(func(_ string, child Component) {
		if err := child.Stop(timeout); err != nil && first == nil {
			first = err
		}
	})
	return first
}

// IsRunning reports whether any child is currently running.
func (n *Node) IsRunning() bool {
	running := false
	n.Walk(func(_ string, child Component) {
		if child.IsRunning() {
			running = true
		}
	})
	return running
}

// Uptime returns the longest uptime among the node's children.
func (n *Node) Uptime() clock.Timeout {
	var max clock.Timeout
	n.Walk(func(_ string, child Component) {
		if u := child.Uptime(); u.Time() > max.Time() {
			max = u
		}
	})
	return max
}
