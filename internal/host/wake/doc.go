// Package wake provides the daemon's exact wake-timer service. It keeps
// keyed registrations in a min-heap ordered by estimated fire time and runs
// a single goroutine that sleeps with a 60-second max-sleep cap, so NTP
// steps, DST transitions and host suspend are noticed within a minute.
//
// Wall-clock registrations are persisted through a Persister and restored
// on restart; restored registrations that are already past due fire
// immediately. Boot-uptime registrations live only in memory.
package wake
