package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/curbd/curbd/settings"
)

var (
	dbPoolMap       = make(map[string]*pgxpool.Pool)
	dbPoolMutex     sync.Mutex
	poolLastUsed    = make(map[string]time.Time)
	cleanupInterval = 1 * time.Minute
)

func init() {
	go periodicCleanup()
}

// periodicCleanup closes pools that have sat fully idle for a while.
// A processing run touches the database in bursts with long compute
// stretches in between; holding connections through those is wasteful.
func periodicCleanup() {
	idleDuration := 2 * cleanupInterval

	for {
		time.Sleep(cleanupInterval)

		dbPoolMutex.Lock()
		for name, pool := range dbPoolMap {
			lastUsed, ok := poolLastUsed[name]
			if !ok || time.Since(lastUsed) > idleDuration {
				stats := pool.Stat()
				if stats.TotalConns() == stats.IdleConns() {
					pool.Close()
					delete(dbPoolMap, name)
					delete(poolLastUsed, name)
					log.Debugf("Closed idle database pool: %s", name)
				} else {
					log.Debugf("Pool %s is active, skipping cleanup", name)
				}
			}
		}
		dbPoolMutex.Unlock()
	}
}

// CloseDBPools closes every cached pool. Called on shutdown.
func CloseDBPools() {
	dbPoolMutex.Lock()
	defer dbPoolMutex.Unlock()
	for _, pool := range dbPoolMap {
		pool.Close()
	}
	dbPoolMap = make(map[string]*pgxpool.Pool)
	poolLastUsed = make(map[string]time.Time)
}

// GetDBPool returns the cached connection pool for the given name,
// creating and ping-checking it on first use.
func GetDBPool(name string, config settings.DatabaseConfig) (*pgxpool.Pool, error) {
	dbPoolMutex.Lock()
	defer dbPoolMutex.Unlock()

	if pool, ok := dbPoolMap[name]; ok {
		poolLastUsed[name] = time.Now()
		return pool, nil
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	poolConfig.MaxConns = config.MaxConnections

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database '%s': %v", name, err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database '%s': %v", name, err)
	}

	log.Debugf("Opened new database pool: %s", name)
	dbPoolMap[name] = pool
	poolLastUsed[name] = time.Now()
	return pool, nil
}
