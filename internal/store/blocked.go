package store

import "errors"

// ErrUnavailable is returned by Blocked for every operation.
var ErrUnavailable = errors.New("persistent store unavailable")

// Blocked models a host environment where persistence is disabled (private
// browsing, storage quota, host policy). Every operation fails, which the
// eligibility gate must degrade from rather than surface.
type Blocked struct{}

// Get implements Store.
func (Blocked) Get(Partition, string) (string, bool, error) { return "", false, ErrUnavailable }

// Set implements Store.
func (Blocked) Set(Partition, string, string) error { return ErrUnavailable }

// Remove implements Store.
func (Blocked) Remove(Partition, string) error { return ErrUnavailable }

// Keys implements Store.
func (Blocked) Keys(Partition, string) ([]string, error) { return nil, ErrUnavailable }

// Close implements Store.
func (Blocked) Close() error { return nil }
