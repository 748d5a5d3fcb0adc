package main

import (
	"context"

	"github.com/turtacn/ListSense/internal/infrastructure/database/redis"
	"github.com/turtacn/ListSense/internal/intelligence/list_extractor"
	"github.com/turtacn/ListSense/internal/interfaces/http/handlers"
	"github.com/turtacn/ListSense/pkg/errors"
)

// Adapters for HealthHandler

func redisHealth(client *redis.Client) handlers.HealthChecker {
	return handlers.CheckFunc{Component: "redis", Fn: client.Ping}
}

// catalogHealth fails readiness while a configured catalog holds no entities.
func catalogHealth(catalog *list_extractor.Catalog, path string) handlers.HealthChecker {
	return handlers.CheckFunc{
		Component: "catalog",
		Fn: func(context.Context) error {
			if path != "" && catalog.Len() == 0 {
				return errors.New(errors.ErrCodeCatalogLoadFailed, "catalog is empty").WithDetailf("path=%s", path)
			}
			return nil
		},
	}
}

//Personal.AI order the ending
