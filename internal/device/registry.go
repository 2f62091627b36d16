package device

import (
	"sort"
	"sync"
)

// Registry owns the set of known bulbs.
//
// Entries are unique by ID and kept sorted by DisplayName then ID. The order
// is recomputed on insertion and whenever an update changes a label.
// All methods are safe for concurrent use; Snapshot returns copies that can
// be iterated without holding the lock.
type Registry struct {
	mu      sync.RWMutex
	devices []*Device
	byID    map[string]*Device
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Device),
	}
}

// Register inserts a device, or replaces the existing entry with the same ID.
// It reports whether the device was new.
func (r *Registry) Register(d Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[d.ID]; ok {
		*existing = d
		r.sortLocked()
		return false
	}

	entry := &d
	r.byID[d.ID] = entry
	r.devices = append(r.devices, entry)
	r.sortLocked()
	return true
}

// Unregister removes a device. Removing an unknown ID is a no-op that
// returns false.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)

	for i, d := range r.devices {
		if d.ID == id {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}
	return true
}

// Update mutates a device in place under the registry lock. The ID cannot be
// changed. Returns false if the device is not registered.
func (r *Registry) Update(id string, fn func(*Device)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return false
	}

	before := d.DisplayName()
	fn(d)
	d.ID = id

	if d.DisplayName() != before {
		r.sortLocked()
	}
	return true
}

// Get returns a copy of a device by ID
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// View calls fn with a copy of the device while holding the read lock, so the
// device cannot be unregistered until fn returns. fn must not call back into
// the registry. Returns false, without calling fn, if the device is not
// registered.
func (r *Registry) View(id string, fn func(Device)) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return false
	}
	fn(*d)
	return true
}

// Len returns the number of registered devices
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Snapshot returns copies of all devices in registry order
func (r *Registry) Snapshot() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, len(r.devices))
	for i, d := range r.devices {
		out[i] = *d
	}
	return out
}

func (r *Registry) sortLocked() {
	sort.SliceStable(r.devices, func(i, j int) bool {
		a, b := r.devices[i], r.devices[j]
		if an, bn := a.DisplayName(), b.DisplayName(); an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}
