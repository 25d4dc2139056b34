package resilience

import "time"

// BuildSettings turns plain configuration numbers into breaker Settings.
// Non-positive values fall back to 60s interval, 30s open timeout,
// 5 failures to trip and 1 trial request to close.
func BuildSettings(name string, intervalSeconds, timeoutSeconds, failureThreshold, successThreshold int) Settings {
	return Settings{
		Name:             name,
		Interval:         secondsOr(intervalSeconds, time.Minute),
		Timeout:          secondsOr(timeoutSeconds, 30*time.Second),
		FailureThreshold: uint32(intOr(failureThreshold, 5)),
		SuccessThreshold: uint32(intOr(successThreshold, 1)),
	}
}

func secondsOr(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
