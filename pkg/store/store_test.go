package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/eisplot/pkg/models"
)

func record(id string) models.Record {
	return models.Record{ID: id, CircuitType: models.UnknownCircuit, RealImpedance: []float64{1, 2}}
}

func TestEmptyStore(t *testing.T) {
	s := New(Options{})

	_, ok := s.Latest()
	assert.False(t, ok)

	all := s.All()
	require.NotNil(t, all)
	assert.Empty(t, all)
	assert.Equal(t, 0, s.Len())
}

func TestAppendOrderAndLatest(t *testing.T) {
	s := New(Options{})
	ids := []string{"a_iter_003", "b", "c_iter_001", "b"}
	for _, id := range ids {
		s.Append(record(id))
	}

	all := s.All()
	require.Len(t, all, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, all[i].ID)
	}

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)
}

func TestAllReturnsCopy(t *testing.T) {
	s := New(Options{})
	s.Append(record("first"))

	all := s.All()
	all[0].ID = "mutated"

	again := s.All()
	assert.Equal(t, "first", again[0].ID)
}

func TestMaxHistoryDropsOldest(t *testing.T) {
	s := New(Options{MaxHistory: 3})
	for i := 0; i < 5; i++ {
		s.Append(record(fmt.Sprintf("r%d", i)))
	}

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "r2", all[0].ID)
	assert.Equal(t, "r4", all[2].ID)

	latest, _ := s.Latest()
	assert.Equal(t, "r4", latest.ID)
}

func TestConcurrentAppend(t *testing.T) {
	s := New(Options{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append(record(fmt.Sprintf("w%d_%d", w, i)))
				_ = s.All()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 400, s.Len())
}
