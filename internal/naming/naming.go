package naming

import (
	"net/url"
	"regexp"
	"strings"
)

const maxLength = 214

var scopedPackagePattern = regexp.MustCompile(`^(?:@([^/]+?)/)?([^/]+?)$`)

var blacklist = []string{"node_modules", "favicon.ico"}

// builtinModules lists Node core module names, which npm refuses as new names.
var builtinModules = map[string]struct{}{
	"assert": {}, "async_hooks": {}, "buffer": {}, "child_process": {}, "cluster": {},
	"console": {}, "constants": {}, "crypto": {}, "dgram": {}, "diagnostics_channel": {},
	"dns": {}, "domain": {}, "events": {}, "fs": {}, "http": {}, "http2": {}, "https": {},
	"inspector": {}, "module": {}, "net": {}, "os": {}, "path": {}, "perf_hooks": {},
	"process": {}, "punycode": {}, "querystring": {}, "readline": {}, "repl": {},
	"stream": {}, "string_decoder": {}, "sys": {}, "timers": {}, "tls": {},
	"trace_events": {}, "tty": {}, "url": {}, "util": {}, "v8": {}, "vm": {},
	"wasi": {}, "worker_threads": {}, "zlib": {},
}

// Result splits violations into hard errors and legacy warnings. Both make a
// name unusable for a new package.
type Result struct {
	Errors   []string
	Warnings []string
}

// ValidForNewPackages reports whether no rule was violated.
func (r Result) ValidForNewPackages() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

// Problems returns errors followed by warnings.
func (r Result) Problems() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Validate checks name against npm's naming rules.
func Validate(name string) Result {
	var res Result
	if len(name) == 0 {
		res.Errors = append(res.Errors, "name length must be greater than zero")
	}
	if strings.HasPrefix(name, ".") {
		res.Errors = append(res.Errors, "name cannot start with a period")
	}
	if strings.HasPrefix(name, "_") {
		res.Errors = append(res.Errors, "name cannot start with an underscore")
	}
	if strings.TrimSpace(name) != name {
		res.Errors = append(res.Errors, "name cannot contain leading or trailing spaces")
	}
	lower := strings.ToLower(name)
	for _, banned := range blacklist {
		if lower == banned {
			res.Errors = append(res.Errors, banned+" is a blacklisted name")
		}
	}

	if _, ok := builtinModules[lower]; ok {
		res.Warnings = append(res.Warnings, name+" is a core module name")
	}
	if len(name) > maxLength {
		res.Warnings = append(res.Warnings, "name can no longer contain more than 214 characters")
	}
	if lower != name {
		res.Warnings = append(res.Warnings, "name can no longer contain capital letters")
	}
	if lastSegment(name) != "" && strings.ContainsAny(lastSegment(name), "~'!()*") {
		res.Warnings = append(res.Warnings, `name can no longer contain special characters ("~'!()*")`)
	}

	if len(name) > 0 && !urlFriendly(name) {
		res.Errors = append(res.Errors, "name can only contain URL-friendly characters")
	}
	return res
}

func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func urlFriendly(name string) bool {
	if encodeURIComponent(name) == name {
		return true
	}
	match := scopedPackagePattern.FindStringSubmatch(name)
	if match == nil || match[1] == "" {
		return false
	}
	return encodeURIComponent(match[1]) == match[1] && encodeURIComponent(match[2]) == match[2]
}

// encodeURIComponent leaves A-Z a-z 0-9 - _ . ! ~ * ' ( ) untouched, like the
// JavaScript builtin npm relies on; url.QueryEscape additionally escapes
// !'()* and turns spaces into +.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	r := strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*", "%7E", "~")
	return r.Replace(escaped)
}
