// Package alarm implements the daily hydration reminder cycle: computing the
// next fire instant for a time of day, registering exact wakes with a host
// wake service, and turning each fire into a notification plus a re-arm for
// the following day.
//
// The host side (timer service, notification service, permission policy) is
// injected through small capability interfaces so the scheduling arithmetic
// and the fire-to-re-arm cycle can be exercised without any platform binding.
package alarm
