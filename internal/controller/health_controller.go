package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// Check godoc
// @Summary Health check
// @Description Reports liveness of the service and its backing stores
// @Tags health
// @Produce  json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := http.StatusOK
	result := gin.H{"status": "ok"}

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		result["status"] = "degraded"
		result["database"] = "down"
	} else {
		result["database"] = "up"
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			result["cache"] = "down"
		} else {
			result["cache"] = "up"
		}
	}

	ctx.JSON(status, result)
}
