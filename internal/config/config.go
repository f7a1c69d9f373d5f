// Package config loads environment configuration into structs.
//
// A .env file in the working directory is read once on first use; variables
// already set in the environment win. Each struct type is parsed once and
// cached, so later calls return the first result.
package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type => any (value of the struct type)
	mu         sync.Mutex
)

// Load fills cfg from the environment. cfg must be a non-nil pointer to a struct.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil %T", cfg)
	}

	typ := reflect.TypeOf(cfg).Elem()
	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	dotenvOnce.Do(func() { _ = godotenv.Load() })

	var loaded T
	if err := env.Parse(&loaded); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}
	cache.Store(typ, loaded)
	*cfg = loaded
	return nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Parse fills cfg from the environment without consulting or updating the cache.
func Parse[T any](cfg *T) error {
	dotenvOnce.Do(func() { _ = godotenv.Load() })
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %T: %w", cfg, err)
	}
	return nil
}
