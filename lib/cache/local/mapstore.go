package local

import (
	"sync"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
)

func New() Client {
	return &local{
		store: make(map[string]*cache.Entry),
		mut:   &sync.RWMutex{},
	}
}

type Client interface {
	Get(digest string) *cache.Entry
	Set(digest string, entry *cache.Entry)
	Delete(digest string)
	Len() int
}

type local struct {
	store map[string]*cache.Entry
	mut   *sync.RWMutex
}

func (l *local) Get(digest string) *cache.Entry {
	l.mut.RLock()
	defer l.mut.RUnlock()

	return l.store[digest]
}

func (l *local) Set(digest string, entry *cache.Entry) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.store[digest] = entry
}

func (l *local) Delete(digest string) {
	l.mut.Lock()
	defer l.mut.Unlock()

	delete(l.store, digest)
}

func (l *local) Len() int {
	l.mut.RLock()
	defer l.mut.RUnlock()

	return len(l.store)
}
