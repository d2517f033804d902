package provider

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provisioner)
)

func Register(name string, provisioner Provisioner) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = provisioner
}

func Get(name string) (Provisioner, error) {
	mu.RLock()
	defer mu.RUnlock()
	provisioner, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unknown provider %q: registered providers are %v", name, sortedNames())
	}
	return provisioner, nil
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedNames()
}

func sortedNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Reset() {
	mu.Lock()
	defer mu.Unlock()
	providers = make(map[string]Provisioner)
}
