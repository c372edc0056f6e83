// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package timeline

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddAssignsID(t *testing.T) {
	s := NewStore()

	l, err := s.Add(Layer{From: 0, To: 10})
	require.NoError(t, err)
	_, err = uuid.Parse(l.ID)
	assert.NoError(t, err)

	got, ok := s.Get(l.ID)
	require.True(t, ok)
	assert.Equal(t, l, got)
}

func TestStoreRejectsInvalidLayers(t *testing.T) {
	s := NewStore()

	_, err := s.Add(named("a", 10, 5, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = s.Add(named("a", 0, 5, 0))
	require.NoError(t, err)
	_, err = s.Add(named("a", 0, 5, 0))
	assert.ErrorIs(t, err, ErrDuplicateLayer)

	assert.ErrorIs(t, s.Update(named("missing", 0, 1, 0)), ErrLayerNotFound)
	assert.ErrorIs(t, s.Update(named("a", 3, 1, 0)), ErrInvalidRange)
	assert.ErrorIs(t, s.Remove("missing"), ErrLayerNotFound)
	assert.ErrorIs(t, s.Reorder("missing", 1), ErrLayerNotFound)
}

func TestStoreMutations(t *testing.T) {
	s := NewStore()
	for _, l := range []Layer{named("a", 0, 10, 1), named("b", 5, 15, 0), named("c", 0, 20, 3)} {
		_, err := s.Add(l)
		require.NoError(t, err)
	}

	s.SetPosition(7)
	f, sel := s.Select()
	assert.Equal(t, uint64(7), f)
	assert.Equal(t, []string{"b", "a", "c"}, objectNames(sel))

	require.NoError(t, s.Reorder("c", -1))
	_, sel = s.Select()
	assert.Equal(t, []string{"c", "b", "a"}, objectNames(sel))

	upd := named("a", 0, 10, 1)
	upd.To = 6
	require.NoError(t, s.Update(upd))
	_, sel = s.Select()
	assert.Equal(t, []string{"c", "b"}, objectNames(sel))

	require.NoError(t, s.Remove("b"))
	assert.Equal(t, 2, s.Len())
	ids := []string{}
	for _, l := range s.Layers() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestStoreUpdateKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	for _, l := range []Layer{named("a", 0, 10, 0), named("b", 0, 10, 0)} {
		_, err := s.Add(l)
		require.NoError(t, err)
	}
	require.NoError(t, s.Update(named("a", 0, 10, 0)))

	_, sel := s.Select()
	assert.Equal(t, []string{"a", "b"}, objectNames(sel))
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	_, err := s.Add(named("old", 0, 1, 0))
	require.NoError(t, err)

	err = s.Replace([]Layer{named("x", 0, 1, 0), named("x", 0, 1, 0)})
	assert.ErrorIs(t, err, ErrDuplicateLayer)
	assert.Equal(t, 1, s.Len(), "failed replace must not change the store")

	require.NoError(t, s.Replace([]Layer{named("x", 0, 1, 0), {From: 2, To: 3}}))
	layers := s.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "x", layers[0].ID)
	assert.NotEmpty(t, layers[1].ID)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	l := named("a", 0, 10, 0)
	l.Object.Parameters = map[string]any{"size": 8}
	_, err := s.Add(l)
	require.NoError(t, err)

	l.Object.Parameters["size"] = 99
	got, _ := s.Get("a")
	assert.Equal(t, 8, got.Object.Parameters["size"])

	got.Object.Parameters["size"] = 100
	again, _ := s.Get("a")
	assert.Equal(t, 8, again.Object.Parameters["size"])
}

func TestStorePlayback(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Playing, s.State())
	assert.Equal(t, uint64(1), s.Advance())

	s.SetState(Paused)
	assert.Equal(t, "paused", s.State().String())
	assert.Equal(t, uint64(1), s.Advance())

	s.SetState(Playing)
	s.SetPosition(41)
	assert.Equal(t, uint64(42), s.Advance())
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = s.Add(Layer{From: uint64(i), To: uint64(i + 10), Z: i % 3})
			s.Advance()
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f, sel := s.Select()
				for _, l := range sel {
					_ = l
				}
				_ = f
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len())
}
