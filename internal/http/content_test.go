package httpapi

import (
	"testing"

	"thaimooc-backend-go/internal/services"
)

func TestNewsCacheKeyNormalizesLimit(t *testing.T) {
	base := newsListCacheKey(services.ClampNewsLimit(20))
	for _, raw := range []int{0, -3, 9999} {
		if got := newsListCacheKey(services.ClampNewsLimit(raw)); got != base {
			t.Errorf("out-of-range limit %d should share the default key", raw)
		}
	}
	if newsListCacheKey(services.ClampNewsLimit(30)) == base {
		t.Error("a valid non-default limit should get its own key")
	}
}
