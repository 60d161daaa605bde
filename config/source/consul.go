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

package source

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/apicompat/config/codec"
)

// ConsulKV is the subset of the Consul KV API used by [Consul].
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a document stored under one Consul KV key, for example a
// shared version catalog that several gateways read.
type Consul struct {
	kv        ConsulKV
	key       string
	decoder   codec.Decoder
	lastIndex uint64
}

// NewConsul connects to address, or to CONSUL_HTTP_ADDR when address is
// empty. CONSUL_HTTP_TOKEN is honored by the client.
func NewConsul(address, key string, decoder codec.Decoder) (*Consul, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return NewConsulKV(client.KV(), key, decoder), nil
}

// NewConsulKV reads key through kv.
func NewConsulKV(kv ConsulKV, key string, decoder codec.Decoder) *Consul {
	return &Consul{kv: kv, key: key, decoder: decoder}
}

// Load returns an empty map when the key does not exist.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key %q: %w", c.key, err)
	}
	if meta != nil {
		c.lastIndex = meta.LastIndex
	}

	conf := map[string]any{}
	if pair == nil || len(pair.Value) == 0 {
		return conf, nil
	}
	if err := c.decoder.Decode(pair.Value, &conf); err != nil {
		return nil, fmt.Errorf("failed to decode consul key %q: %w", c.key, err)
	}
	return conf, nil
}

// LastIndex is the Consul index observed by the latest Load.
func (c *Consul) LastIndex() uint64 {
	return c.lastIndex
}
