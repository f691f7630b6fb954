package storage

import "context"

// HealthCheck checks Redis + the object store
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if err := s.store.Ping(ctx); err != nil {
		status[s.store.Name()] = "unhealthy: " + err.Error()
	} else {
		status[s.store.Name()] = "healthy"
	}

	return status
}
