// Package config loads named timer and countdown definitions from YAML.
//
// Example:
//
//	timers:
//	  heartbeat:
//	    interval_ms: 500
//	    max_duration_ms: 60000
//	    precision: true
//	countdowns:
//	  tea:
//	    seconds: 180
//	    auto_start: true
//
// Durations are given in milliseconds (seconds for countdown lengths) and
// must be positive and finite; .nan and .inf are rejected with
// timer.ErrInvalidConfig.
package config
