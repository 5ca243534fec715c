package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSrc is the closed CUE schema for spa.yaml.
const schemaSrc = `
app?: close({
	name?:   string & !=""
	layout?: string & !=""
})
dispatch?: close({interval?: string & =~"^([0-9.]+(ns|us|µs|ms|s|m|h))+$"})
poll?: close({interval?: string & =~"^([0-9.]+(ns|us|µs|ms|s|m|h))+$"})
log?: close({
	level?:   "debug" | "info" | "warn" | "warning" | "error"
	format?:  "text" | "json"
	journal?: bool
})
server?: close({addr?: string})
routes?: [...close({
	pattern:  string & =~"^/"
	template: string & !=""
	model?:   string
})]
`

// Validate unifies raw, the decoded spa.yaml document, with the schema.
// A nil document is valid.
func Validate(path string, raw map[string]any) error {
	if raw == nil {
		return nil
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({"+schemaSrc+"})", cue.Filename("spa.schema.cue"))
	if err := schema.Err(); err != nil {
		return configError("config.Validate", path, err)
	}
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return configError("config.Validate", path, err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return configError("config.Validate", path, err)
	}
	return nil
}
