package finance

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequencerDropsStaleRuns(t *testing.T) {
	var s Sequencer
	first := s.Begin()
	second := s.Begin()
	require.Equal(t, second, s.Latest())

	rendered := ""
	require.True(t, s.Commit(second, func() { rendered = "second" }))
	require.False(t, s.Commit(first, func() { rendered = "first" }))
	require.False(t, s.Commit(second, nil))
	require.Equal(t, "second", rendered)
}

func TestSequencerConcurrentBegin(t *testing.T) {
	var s Sequencer
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Begin()
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(50), s.Latest())
}
