package service

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"
)

// renderLaunchd renders a unit as a launchd property list.
func renderLaunchd(u *Unit) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`)

	plist := doc.CreateElement("plist")
	plist.CreateAttr("version", "1.0")
	dict := plist.CreateElement("dict")

	plistString(dict, "Label", u.Label)

	dict.CreateElement("key").SetText("ProgramArguments")
	args := dict.CreateElement("array")
	for _, arg := range u.Program {
		args.CreateElement("string").SetText(arg)
	}

	plistBool(dict, "RunAtLoad", true)
	plistBool(dict, "KeepAlive", u.KeepAlive)

	if len(u.Environment) > 0 {
		dict.CreateElement("key").SetText("EnvironmentVariables")
		envDict := dict.CreateElement("dict")
		for _, k := range sortedKeys(u.Environment) {
			plistString(envDict, k, u.Environment[k])
		}
	}

	plistString(dict, "StandardOutPath", u.StdoutPath)
	plistString(dict, "StandardErrorPath", u.StderrPath)

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize plist: %w", err)
	}
	return out, nil
}

func plistString(dict *etree.Element, key, value string) {
	dict.CreateElement("key").SetText(key)
	dict.CreateElement("string").SetText(value)
}

func plistBool(dict *etree.Element, key string, value bool) {
	dict.CreateElement("key").SetText(key)
	if value {
		dict.CreateElement("true")
	} else {
		dict.CreateElement("false")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
