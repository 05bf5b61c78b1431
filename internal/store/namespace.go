// Package store namespaces a libkv store so that several shutdownd deployments can share one
// etcd cluster.
package store

import (
	"strings"

	"github.com/serverless/libkv/store"
)

// Namespace prefixes every key with a root and strips it from returned pairs, so callers only
// ever see keys relative to the root.
type Namespace struct {
	root string
	kv   store.Store
}

var _ store.Store = (*Namespace)(nil)

// NewNamespace creates a store rooted at root.
func NewNamespace(root string, kv store.Store) *Namespace {
	root = strings.Trim(root, "/")
	if root != "" {
		root += "/"
	}
	return &Namespace{root: root, kv: kv}
}

func (ns *Namespace) key(key string) string {
	return ns.root + key
}

func (ns *Namespace) strip(pair *store.KVPair) *store.KVPair {
	if pair == nil {
		return nil
	}
	return &store.KVPair{
		Key:       strings.TrimPrefix(pair.Key, ns.root),
		Value:     pair.Value,
		LastIndex: pair.LastIndex,
	}
}

func (ns *Namespace) rooted(pair *store.KVPair) *store.KVPair {
	if pair == nil {
		return nil
	}
	return &store.KVPair{Key: ns.key(pair.Key), Value: pair.Value, LastIndex: pair.LastIndex}
}

// Put stores value under the namespaced key.
func (ns *Namespace) Put(key string, value []byte, options *store.WriteOptions) error {
	return ns.kv.Put(ns.key(key), value, options)
}

// Get returns the pair stored under the namespaced key.
func (ns *Namespace) Get(key string, options *store.ReadOptions) (*store.KVPair, error) {
	pair, err := ns.kv.Get(ns.key(key), options)
	if err != nil {
		return nil, err
	}
	return ns.strip(pair), nil
}

func (ns *Namespace) Delete(key string) error {
	return ns.kv.Delete(ns.key(key))
}

func (ns *Namespace) Exists(key string, options *store.ReadOptions) (bool, error) {
	return ns.kv.Exists(ns.key(key), options)
}

// Watch forwards changes of the namespaced key until stopCh is closed.
func (ns *Namespace) Watch(key string, stopCh <-chan struct{}, options *store.ReadOptions) (<-chan *store.KVPair, error) {
	in, err := ns.kv.Watch(ns.key(key), stopCh, options)
	if err != nil {
		return nil, err
	}
	out := make(chan *store.KVPair)
	go func() {
		defer close(out)
		for pair := range in {
			select {
			case out <- ns.strip(pair):
			case <-stopCh:
				return
			}
		}
	}()
	return out, nil
}

// WatchTree forwards changes below the namespaced directory until stopCh is closed.
func (ns *Namespace) WatchTree(directory string, stopCh <-chan struct{}, options *store.ReadOptions) (<-chan []*store.KVPair, error) {
	in, err := ns.kv.WatchTree(ns.key(directory), stopCh, options)
	if err != nil {
		return nil, err
	}
	out := make(chan []*store.KVPair)
	go func() {
		defer close(out)
		for pairs := range in {
			select {
			case out <- ns.stripAll(pairs):
			case <-stopCh:
				return
			}
		}
	}()
	return out, nil
}

func (ns *Namespace) NewLock(key string, options *store.LockOptions) (store.Locker, error) {
	return ns.kv.NewLock(ns.key(key), options)
}

// List returns the pairs below the namespaced directory, skipping the root itself.
func (ns *Namespace) List(directory string, options *store.ReadOptions) ([]*store.KVPair, error) {
	pairs, err := ns.kv.List(ns.key(directory), options)
	if err != nil {
		return nil, err
	}
	return ns.stripAll(pairs), nil
}

func (ns *Namespace) stripAll(pairs []*store.KVPair) []*store.KVPair {
	stripped := []*store.KVPair{}
	for _, pair := range pairs {
		if pair.Key == ns.root {
			continue
		}
		stripped = append(stripped, ns.strip(pair))
	}
	return stripped
}

func (ns *Namespace) DeleteTree(directory string) error {
	return ns.kv.DeleteTree(ns.key(directory))
}

// AtomicPut writes value if the stored pair still matches previous.
func (ns *Namespace) AtomicPut(key string, value []byte, previous *store.KVPair, options *store.WriteOptions) (bool, *store.KVPair, error) {
	ok, pair, err := ns.kv.AtomicPut(ns.key(key), value, ns.rooted(previous), options)
	return ok, ns.strip(pair), err
}

// AtomicDelete deletes the key if the stored pair still matches previous.
func (ns *Namespace) AtomicDelete(key string, previous *store.KVPair) (bool, error) {
	return ns.kv.AtomicDelete(ns.key(key), ns.rooted(previous))
}

// Close closes the underlying libkv client.
func (ns *Namespace) Close() {
	ns.kv.Close()
}
