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

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apicompat/config/codec"
)

type fakeKV struct {
	pair *api.KVPair
	err  error
}

func (f fakeKV) Get(string, *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	return f.pair, &api.QueryMeta{LastIndex: 7}, f.err
}

func TestFile(t *testing.T) {
	t.Parallel()

	t.Run("reads yaml from disk", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "apicompat.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

		conf, err := NewFile(path, codec.YAML{}).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"addr": ":9090"}, conf["server"])
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := NewFile(filepath.Join(t.TempDir(), "nope.yaml"), codec.YAML{}).Load(context.Background())
		require.Error(t, err)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		conf, err := NewContent(nil, codec.JSON{}).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, conf)
	})

	t.Run("decode error", func(t *testing.T) {
		t.Parallel()
		_, err := NewContent([]byte("{"), codec.JSON{}).Load(context.Background())
		require.ErrorContains(t, err, "content")
	})
}

func TestEnv(t *testing.T) {
	t.Parallel()

	e := &Env{prefix: "APICOMPAT_", environ: func() []string {
		return []string{"APICOMPAT_SERVER_ADDR=:7070", "HOME=/root", "APICOMPAT_VERSIONING_STRICT=true"}
	}}
	conf, err := e.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"server":     map[string]any{"addr": ":7070"},
		"versioning": map[string]any{"strict": "true"},
	}, conf)
}

func TestConsul(t *testing.T) {
	t.Parallel()

	t.Run("decodes value", func(t *testing.T) {
		t.Parallel()
		c := NewConsulKV(fakeKV{pair: &api.KVPair{Value: []byte(`{"versioning":{"method":"query"}}`)}}, "apicompat/config", codec.JSON{})

		conf, err := c.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"method": "query"}, conf["versioning"])
		assert.Equal(t, uint64(7), c.LastIndex())
	})

	t.Run("absent key", func(t *testing.T) {
		t.Parallel()
		conf, err := NewConsulKV(fakeKV{}, "missing", codec.JSON{}).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, conf)
	})

	t.Run("client error", func(t *testing.T) {
		t.Parallel()
		_, err := NewConsulKV(fakeKV{err: errors.New("connection refused")}, "k", codec.JSON{}).Load(context.Background())
		require.ErrorContains(t, err, "connection refused")
	})
}
