package health

import "time"

// DriverState is what AnimationCheck needs to know about the tick driver.
type DriverState struct {
	Running  bool
	LastTick time.Time
	Interval time.Duration
}

// staleTicks is how many missed intervals mark the animation as degraded.
const staleTicks = 10

// AnimationCheck reports unhealthy while the driver is stopped and degraded
// when the last tick is more than ten intervals old.
func AnimationCheck(state func() DriverState, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	return func() Check {
		s := state()
		check := Check{
			Name: "animation",
			Details: map[string]any{
				"running":     s.Running,
				"interval_ms": s.Interval.Milliseconds(),
			},
		}

		switch {
		case !s.Running:
			check.Status = StatusUnhealthy
			check.Message = "Animation stopped"
		case s.LastTick.IsZero():
			check.Status = StatusDegraded
			check.Message = "No tick yet"
		default:
			age := now().Sub(s.LastTick)
			check.Details["last_tick_age_ms"] = age.Milliseconds()
			if age > staleTicks*s.Interval {
				check.Status = StatusDegraded
				check.Message = "Ticks are late"
			} else {
				check.Status = StatusHealthy
				check.Message = "Animating"
			}
		}
		return check
	}
}

// ProducerCheck reports degraded when nothing has been published within
// maxAge, and unhealthy when nothing has ever been published.
func ProducerCheck(lastPublish func() (time.Time, uint64), maxAge time.Duration, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	return func() Check {
		at, generation := lastPublish()
		check := Check{
			Name:    "producer",
			Details: map[string]any{"generation": generation},
		}

		if at.IsZero() {
			check.Status = StatusUnhealthy
			check.Message = "No snapshot published"
			return check
		}

		age := now().Sub(at)
		check.Details["age_ms"] = age.Milliseconds()
		if maxAge > 0 && age > maxAge {
			check.Status = StatusDegraded
			check.Message = "Producer is idle"
		} else {
			check.Status = StatusHealthy
			check.Message = "Publishing"
		}
		return check
	}
}

// SceneCheck reports the current entity counts. It is degraded when the
// last sync skipped dangling links.
func SceneCheck(counts func() (nodes, links, dangling int)) CheckFunc {
	return func() Check {
		nodes, links, dangling := counts()
		check := Check{
			Name: "scene",
			Details: map[string]any{
				"nodes":    nodes,
				"links":    links,
				"dangling": dangling,
			},
			Status:  StatusHealthy,
			Message: "Consistent",
		}
		if dangling > 0 {
			check.Status = StatusDegraded
			check.Message = "Snapshot has dangling links"
		}
		return check
	}
}

// AlwaysHealthy is a liveness check that passes while the process can answer.
func AlwaysHealthy(name string) CheckFunc {
	return func() Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}
