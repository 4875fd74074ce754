package cmd

// HELP_TEMPL renders `aqua help`.
const HELP_TEMPL = `{{.Description}}

Usage:
  {{.HelpName}} [global flags] <command> [flags]
{{if .VisibleCommands}}
Commands:{{range .VisibleCommands}}
  {{printf "%-10s" (index .Names 0)}}{{.Usage}}{{end}}
{{end}}{{if .VisibleFlags}}
Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}
{{end}}
Run "{{.HelpName}} help <command>" for the flags of a command.
`

// CMD_HELP_TEMPL renders `aqua help <command>`.
const CMD_HELP_TEMPL = `{{.HelpName}}: {{.Usage}}
{{if .Description}}
{{.Description}}
{{end}}
Usage:
  {{.HelpName}}{{if .VisibleFlags}} [flags]{{end}}{{if .ArgsUsage}} {{.ArgsUsage}}{{end}}
{{if .VisibleFlags}}
Flags:{{range .VisibleFlags}}
  {{.}}{{end}}
{{end}}`
