package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-grader-api/internal/domain/repository"
	"ai-grader-api/internal/infrastructure/persistence/redis"
	apperrors "ai-grader-api/pkg/errors"
)

// 统计查询命中 GROUP BY 全表扫描，缓存一分钟足够新鲜
const statsCacheTTL = time.Minute

// UsageStatsService 聚合查询各工作流的 token 用量
type UsageStatsService struct {
	usageRepo repository.LLMUsageEventRepository
	cache     *redis.Cache
}

// NewUsageStatsService 创建用量统计服务
func NewUsageStatsService(usageRepo repository.LLMUsageEventRepository, cache *redis.Cache) *UsageStatsService {
	return &UsageStatsService{
		usageRepo: usageRepo,
		cache:     cache,
	}
}

// StatsByWorkflow 查询最近 window 时间内各工作流的 token 用量，
// 经 Read-Through 缓存，同 key 并发查询只落库一次。
func (s *UsageStatsService) StatsByWorkflow(ctx context.Context, window time.Duration) ([]repository.TokenUsageStat, error) {
	if window <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "window must be positive")
	}

	since := time.Now().Add(-window)

	if s.cache == nil {
		return s.usageRepo.StatsByWorkflow(ctx, since)
	}

	key := fmt.Sprintf("usage:stats:workflow:%s", window)
	data, err := s.cache.GetOrLoadSafe(ctx, key, statsCacheTTL, func() (interface{}, error) {
		return s.usageRepo.StatsByWorkflow(ctx, since)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load usage stats")
	}

	var stats []repository.TokenUsageStat
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to decode cached usage stats")
	}
	return stats, nil
}
