package admission

import (
	"math/rand/v2"
	"time"

	"github.com/gin-gonic/gin"
)

// RandomDelay holds each request for a uniformly random duration in
// [0, max) to blur response timing on credential checks. It never rejects;
// a cancelled request stops waiting early.
func RandomDelay(max time.Duration) Stage {
	return NewStage("random_delay", func(c *gin.Context) *Rejection {
		if max <= 0 {
			return nil
		}
		timer := time.NewTimer(rand.N(max))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
		}
		return nil
	})
}
