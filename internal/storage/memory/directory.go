package memory

import (
	"context"

	"roomkeeper/internal/directory"
)

// Directory serves guest and service lookups from ids registered with
// AddGuest and AddService.
type Directory struct {
	store *Store
}

func (d *Directory) AddGuest(ids ...string) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	for _, id := range ids {
		d.store.guests[id] = struct{}{}
	}
}

func (d *Directory) AddService(ids ...string) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	for _, id := range ids {
		d.store.services[id] = struct{}{}
	}
}

func (d *Directory) GuestExists(ctx context.Context, guestID string) (bool, error) {
	var ok bool
	d.store.read(ctx, func() {
		_, ok = d.store.guests[guestID]
	})
	return ok, nil
}

func (d *Directory) MissingServices(ctx context.Context, serviceIDs []string) ([]string, error) {
	var have []string
	d.store.read(ctx, func() {
		for _, id := range serviceIDs {
			if _, ok := d.store.services[id]; ok {
				have = append(have, id)
			}
		}
	})
	return directory.Missing(serviceIDs, have), nil
}
