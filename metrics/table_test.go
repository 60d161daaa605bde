// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !integration

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usersV2 = Key{Version: "2.0.0", Method: "GET", Path: "/users"}

func TestTable_Record(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	table.Record(usersV2, 10*time.Millisecond, nil, now)
	table.Record(usersV2, 20*time.Millisecond, nil, now.Add(time.Second))
	table.Record(usersV2, 30*time.Millisecond, errors.New("boom"), now.Add(2*time.Second))

	snap, ok := table.Get(usersV2)
	require.True(t, ok)
	assert.Equal(t, int64(3), snap.RequestCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, 20*time.Millisecond, snap.AverageResponseTime)
	assert.InDelta(t, 20.0, snap.AverageResponseMS, 0.001)
	assert.Equal(t, now.Add(2*time.Second), snap.LastAccessed)
	assert.Equal(t, "GET /users", snap.Endpoint)

	_, ok = table.Get(Key{Version: "9.0.0", Method: "GET", Path: "/users"})
	assert.False(t, ok)
}

func TestTable_CountsAfterNCalls(t *testing.T) {
	t.Parallel()

	table := NewTable()
	for range 25 {
		table.Record(usersV2, time.Millisecond, nil, time.Now())
	}
	table.Record(usersV2, time.Millisecond, errors.New("handler failed"), time.Now())

	snap, _ := table.Get(usersV2)
	assert.Equal(t, int64(26), snap.RequestCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
}

func TestTable_ConcurrentFirstInsert(t *testing.T) {
	t.Parallel()

	table := NewTable()
	const workers, perWorker = 16, 200

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range perWorker {
				table.Record(usersV2, 2*time.Millisecond, nil, time.Now())
			}
		})
	}
	wg.Wait()

	snap, ok := table.Get(usersV2)
	require.True(t, ok)
	assert.Equal(t, int64(workers*perWorker), snap.RequestCount)
	assert.Equal(t, 2*time.Millisecond, snap.AverageResponseTime)
}

func TestTable_Summarize(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Now()
	table.Record(usersV2, 10*time.Millisecond, nil, now)
	table.Record(usersV2, 10*time.Millisecond, errors.New("x"), now)
	table.Record(Key{Version: "1.0.0", Method: "POST", Path: "/orders"}, 40*time.Millisecond, nil, now)

	s := table.Summarize()
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.InDelta(t, 1.0/3.0, s.ErrorRate, 0.0001)
	assert.Equal(t, 20*time.Millisecond, s.AverageResponseTime())
	assert.Equal(t, VersionSummary{RequestCount: 2, ErrorCount: 1, Endpoints: 1}, s.Versions["2.0.0"])
	require.Len(t, s.Endpoints, 2)
	assert.Equal(t, "1.0.0", s.Endpoints[0].Version)

	table.Reset()
	empty := table.Summarize()
	assert.Zero(t, empty.TotalRequests)
	assert.NotNil(t, empty.Endpoints)
}

func TestTable_SnapshotsOrderedByVersion(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Now()
	for _, v := range []string{"10.0.0", "2.0.0", "1.10.0", "1.2.0"} {
		table.Record(Key{Version: v, Method: "GET", Path: "/users"}, time.Millisecond, nil, now)
	}

	var versions []string
	for _, snap := range table.Snapshots() {
		versions = append(versions, snap.Version)
	}
	assert.Equal(t, []string{"1.2.0", "1.10.0", "2.0.0", "10.0.0"}, versions)
}
