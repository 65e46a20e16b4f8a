package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-pilot/cmd/api/dto"
	"social-pilot/models"
	"social-pilot/providers"
	"social-pilot/scheduler"
)

// RunSchedulerHandler godoc
// @Summary      Run one scheduler tick
// @Description  예약 시각이 지난 포스트를 게시합니다. 이미 실행 중이면 skipped=true 로 바로 반환합니다.
// @Tags         scheduler
// @Produce      json
// @Success      200  {object}  dto.SchedulerRunResponseDTO
// @Router       /scheduler/run [post]
func RunSchedulerHandler(s *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.RunTick(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.SchedulerRunResponseDTO{
			ProcessedCount: res.Processed,
			FailedCount:    res.Failed,
			Skipped:        res.Skipped,
		})
	}
}

type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// GetSettingsHandler godoc
// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /settings [get]
func GetSettingsHandler(store SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := store.All(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// PutSettingsHandler godoc
// @Summary      Upsert settings
// @Description  전달한 key/value 만 갱신합니다. TEXT_PROVIDER 는 등록된 provider 이름이어야 합니다.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "Settings"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /settings [put]
func PutSettingsHandler(store SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in map[string]string
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "body must be an object of string values")
			return
		}
		for k := range in {
			if strings.TrimSpace(k) == "" {
				badRequest(c, "setting key required")
				return
			}
		}
		if v, ok := in[models.SettingTextProvider]; ok {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" && !providers.Known(v) {
				badRequest(c, "Unknown text provider: "+in[models.SettingTextProvider])
				return
			}
			in[models.SettingTextProvider] = v
		}
		ctx := c.Request.Context()
		for k, v := range in {
			if err := store.Set(ctx, k, v); err != nil {
				respondError(c, err)
				return
			}
		}
		all, err := store.All(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}
