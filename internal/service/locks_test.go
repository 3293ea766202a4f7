package service

import (
	"sync"
	"testing"
)

func TestUserLocksSerialiseSameUser(t *testing.T) {
	locks := NewUserLocks()
	var wg sync.WaitGroup
	counter := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("lock table size = %d, want 0 after release", n)
	}
}

func TestUserLocksPairOrdering(t *testing.T) {
	locks := NewUserLocks()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, b := int64(1), int64(2)
			if i%2 == 0 {
				a, b = b, a
			}
			unlock := locks.LockPair(a, b)
			unlock()
		}()
	}
	wg.Wait()

	unlock := locks.LockPair(3, 3)
	if n := locks.size(); n != 1 {
		t.Fatalf("LockPair(3, 3) holds %d entries, want 1", n)
	}
	unlock()
}
