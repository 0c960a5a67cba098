package handler

import (
	"context"
	"net/http"
	"time"

	"poscore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports liveness of the settlement service and its dependencies:
// Postgres, Redis, and the async job queues (pending depth plus dead-letter
// backlog per queue). Credentials and connection details are never exposed.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		queues := gin.H{}
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			for _, q := range []string{worker.QueueReceipt, worker.QueueEmail} {
				depth, _ := rdb.LLen(ctx, q).Result()
				dead, _ := worker.DLQLength(ctx, rdb, q)
				queues[q] = gin.H{"depth": depth, "deadLettered": dead}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"service": "poscore",
			"ok":      status == http.StatusOK,
			"db":      dbStatus,
			"redis":   redisStatus,
			"queues":  queues,
		})
	}
}
