package cmd

import "time"

const (
	DEF_CALL_TIMEOUT = 10 * time.Second
	DEF_WAIT_GRACE   = 90 * time.Second
)

const DESCRIPTION = `
AquaBalance keeps you drinking water through the day. The daemon
arms exact daily and one-shot reminders, delivers notifications with
"I drank" and "Skip" actions and survives restarts without losing
a scheduled reminder.
`

const (
	DaemonDescription = `The daemon command runs the reminder daemon in the
foreground. It restores persisted reminders, serves JSON-RPC on
the listen address and delivers notifications.

Example:
        aqua daemon --listen 127.0.0.1:8765

`
	OnceDescription = `The once command arms a one-shot reminder that fires after
the given number of seconds. With --wait it shows a countdown
until the reminder fires.

Example:
        aqua once --seconds 30 --wait

`
	DailyDescription = `The daily command arms a reminder that repeats every day at
the given local time. Omitted flags use the daemon defaults.

Example:
        aqua daily --hour 9 --minute 30 --title "Water break"

`
	CancelDescription = `The cancel command cancels a daily reminder. Without --id it
cancels the default reminder.

Example:
        aqua cancel --id 2

`
	NextDescription = `The next command prints when a daily reminder at the given
time would fire next.

Example:
        aqua next --hour 7 --minute 0

`
	ListDescription = `The list command prints the pending reminders and the
active notifications with their action links.

Example:
        aqua list

`
	ListenDescription = `The listen command stays connected to the daemon and prints
every notification action and fired reminder until interrupted.

Example:
        aqua listen

`
)
