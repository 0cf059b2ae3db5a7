package modules

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-recipe-api/pkg/response"
)

// HealthCheck reports whether one backing service is usable.
type HealthCheck func(ctx context.Context) error

// HealthModule serves GET /health for load balancers and orchestrators. It
// answers 200 when every check passes and 503 otherwise, naming each failure.
type HealthModule struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

func NewHealthModule(checks map[string]HealthCheck) *HealthModule {
	return &HealthModule{Checks: checks, Timeout: 2 * time.Second}
}

func (m *HealthModule) Name() string { return "health" }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.handle)
}

func (m *HealthModule) handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.Timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		status    = make(map[string]string, len(m.Checks))
		unhealthy bool
	)
	for name, check := range m.Checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()
			err := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status[name] = err.Error()
				unhealthy = true
				return
			}
			status[name] = "ok"
		}(name, check)
	}
	wg.Wait()

	if unhealthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", status)
		return
	}
	response.Success(c, http.StatusOK, status, "healthy", nil)
}
