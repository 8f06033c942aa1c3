package e2etesting

import (
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

type CoverageStats struct {
	TotalRoutes   int
	CoveredRoutes int
	MissingRoutes []RouteInfo
	Coverage      float64
}

// CoverageTracker records which registered routes an end-to-end run hit.
type CoverageTracker struct {
	mu               sync.RWMutex
	registeredRoutes map[string]RouteInfo
	hitRoutes        map[string]int
	excludePatterns  []string
}

func NewCoverageTracker() *CoverageTracker {
	return &CoverageTracker{
		registeredRoutes: make(map[string]RouteInfo),
		hitRoutes:        make(map[string]int),
		// group catch-alls are registered with echo's own not-found handler
		excludePatterns: []string{"github.com/labstack/echo/v4"},
	}
}

func routeKey(method, path string) string {
	return method + ":" + path
}

func (ct *CoverageTracker) RegisterRoutes(e *echo.Echo) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	for _, route := range e.Routes() {
		if route.Method == echo.RouteNotFound || ct.excluded(route.Name) {
			continue
		}
		ct.registeredRoutes[routeKey(route.Method, route.Path)] = RouteInfo{
			Method: route.Method,
			Path:   route.Path,
			Name:   route.Name,
		}
	}
}

func (ct *CoverageTracker) excluded(name string) bool {
	for _, pattern := range ct.excludePatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func (ct *CoverageTracker) TrackingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ct.mu.Lock()
			ct.hitRoutes[routeKey(c.Request().Method, c.Path())]++
			ct.mu.Unlock()

			return next(c)
		}
	}
}

func (ct *CoverageTracker) GetHitCount(method, path string) int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.hitRoutes[routeKey(method, path)]
}

func (ct *CoverageTracker) GetStats() CoverageStats {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	var missing []RouteInfo
	covered := 0
	for key, route := range ct.registeredRoutes {
		if ct.hitRoutes[key] > 0 {
			covered++
		} else {
			missing = append(missing, route)
		}
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Path == missing[j].Path {
			return missing[i].Method < missing[j].Method
		}
		return missing[i].Path < missing[j].Path
	})

	total := len(ct.registeredRoutes)
	var coverage float64
	if total > 0 {
		coverage = float64(covered) / float64(total) * 100
	}

	return CoverageStats{
		TotalRoutes:   total,
		CoveredRoutes: covered,
		MissingRoutes: missing,
		Coverage:      coverage,
	}
}

func (ct *CoverageTracker) GetMissingRoutes() []RouteInfo {
	return ct.GetStats().MissingRoutes
}
