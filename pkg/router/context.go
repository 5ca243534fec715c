// Package router routes location hashes to view models.
//
// Routing is a middleware chain run on every poll of the location:
//
//	app := router.NewApp(loc)
//	app.Use(routes) // Middleware returned by router.Router
//	app.Start(loop)
//
// The chain always starts with Listener, which stops it unless the hash
// changed since the previous poll. Rest rewrites the hash to the matching
// route pattern and captures its parameters, and the router middleware
// mounts the route's view model into the page's router-view slot.
package router

import (
	"strings"
	"sync"
)

// Context is passed along the middleware chain for one poll.
type Context struct {
	// Hash is the location hash without the leading '#'. Rest rewrites it
	// to the matched route pattern.
	Hash string
	// RestParams holds the parameters captured by the matched pattern.
	RestParams map[string]string
	// Query holds the parsed query part of the hash.
	Query map[string]string

	location Location
}

// NewContext creates a context for hash. loc receives redirects and may be
// nil.
func NewContext(hash string, loc Location) *Context {
	return &Context{
		Hash:       strings.TrimPrefix(hash, "#"),
		RestParams: map[string]string{},
		Query:      map[string]string{},
		location:   loc,
	}
}

// Redirect sets the hash on the context and on the location. The new hash
// is routed on the next poll.
func (c *Context) Redirect(hash string) *Context {
	c.Hash = strings.TrimPrefix(hash, "#")
	if c.location != nil {
		c.location.SetHash(c.Hash)
	}
	return c
}

// Location is the source of the current hash.
type Location interface {
	Hash() string
	SetHash(hash string)
}

// MemoryLocation is a Location held in memory.
// It is safe for concurrent use.
type MemoryLocation struct {
	mu   sync.Mutex
	hash string
}

// NewMemoryLocation creates a location at hash.
func NewMemoryLocation(hash string) *MemoryLocation {
	return &MemoryLocation{hash: strings.TrimPrefix(hash, "#")}
}

// Hash returns the current hash.
func (l *MemoryLocation) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hash
}

// SetHash navigates to hash.
func (l *MemoryLocation) SetHash(hash string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hash = strings.TrimPrefix(hash, "#")
}
