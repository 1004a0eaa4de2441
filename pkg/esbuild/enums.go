package esbuild

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

func ParsePlatform(s string) (api.Platform, error) {
	switch strings.ToLower(s) {
	case "node":
		return api.PlatformNode, nil
	case "browser":
		return api.PlatformBrowser, nil
	case "neutral":
		return api.PlatformNeutral, nil
	}
	return 0, fmt.Errorf("unknown platform %q (supported: node, browser, neutral)", s)
}

func ParseFormat(s string) (api.Format, error) {
	switch strings.ToLower(s) {
	case "cjs", "commonjs":
		return api.FormatCommonJS, nil
	case "esm":
		return api.FormatESModule, nil
	case "iife":
		return api.FormatIIFE, nil
	}
	return 0, fmt.Errorf("unknown format %q (supported: cjs, esm, iife)", s)
}

func ParseSourcemap(s string) (api.SourceMap, error) {
	switch strings.ToLower(s) {
	case "none", "false", "":
		return api.SourceMapNone, nil
	case "linked", "true":
		return api.SourceMapLinked, nil
	case "inline":
		return api.SourceMapInline, nil
	case "external":
		return api.SourceMapExternal, nil
	case "both":
		return api.SourceMapInlineAndExternal, nil
	}
	return 0, fmt.Errorf("unknown sourcemap mode %q (supported: none, linked, inline, external, both)", s)
}

func ParseLegalComments(s string) (api.LegalComments, error) {
	switch strings.ToLower(s) {
	case "default", "":
		return api.LegalCommentsDefault, nil
	case "none":
		return api.LegalCommentsNone, nil
	case "inline":
		return api.LegalCommentsInline, nil
	case "eof":
		return api.LegalCommentsEndOfFile, nil
	case "linked":
		return api.LegalCommentsLinked, nil
	case "external":
		return api.LegalCommentsExternal, nil
	}
	return 0, fmt.Errorf("unknown legal comments mode %q", s)
}

func ParseCharset(s string) (api.Charset, error) {
	switch strings.ToLower(s) {
	case "default", "", "ascii":
		return api.CharsetASCII, nil
	case "utf8", "utf-8":
		return api.CharsetUTF8, nil
	}
	return 0, fmt.Errorf("unknown charset %q (supported: ascii, utf8)", s)
}

func ParseDrop(s string) (api.Drop, error) {
	switch strings.ToLower(s) {
	case "console":
		return api.DropConsole, nil
	case "debugger":
		return api.DropDebugger, nil
	}
	return 0, fmt.Errorf("unknown drop value %q (supported: console, debugger)", s)
}

var loaders = map[string]api.Loader{
	"base64":  api.LoaderBase64,
	"binary":  api.LoaderBinary,
	"copy":    api.LoaderCopy,
	"css":     api.LoaderCSS,
	"dataurl": api.LoaderDataURL,
	"empty":   api.LoaderEmpty,
	"file":    api.LoaderFile,
	"js":      api.LoaderJS,
	"json":    api.LoaderJSON,
	"jsx":     api.LoaderJSX,
	"text":    api.LoaderText,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
}

func ParseLoader(s string) (api.Loader, error) {
	if l, ok := loaders[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown loader %q", s)
}

var languageTargets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

var engineNames = map[string]api.EngineName{
	"node":    api.EngineNode,
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"safari":  api.EngineSafari,
	"deno":    api.EngineDeno,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
}

// ParseTarget splits an esbuild style target list ("node18", "es2022,node20")
// into the language target and engine constraints of api.BuildOptions.
func ParseTarget(s string) (api.Target, []api.Engine, error) {
	target := api.DefaultTarget
	var engines []api.Engine
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if t, ok := languageTargets[part]; ok {
			target = t
			continue
		}
		i := strings.IndexAny(part, "0123456789")
		if i <= 0 {
			return 0, nil, fmt.Errorf("invalid target %q", part)
		}
		name, ok := engineNames[part[:i]]
		if !ok {
			return 0, nil, fmt.Errorf("unknown target engine %q", part[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: part[i:]})
	}
	return target, engines, nil
}

// NodeTarget is the engine constraint for "node<major>".
func NodeTarget(major int) []api.Engine {
	return []api.Engine{{Name: api.EngineNode, Version: fmt.Sprintf("%d", major)}}
}

// FormatEngines renders engine constraints as esbuild target strings.
func FormatEngines(engines []api.Engine) []string {
	out := make([]string, 0, len(engines))
	for _, e := range engines {
		for name, v := range engineNames {
			if v == e.Name {
				out = append(out, name+e.Version)
				break
			}
		}
	}
	return out
}
