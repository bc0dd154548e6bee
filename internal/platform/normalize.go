package platform

import (
	"fmt"
	"strings"
)

// archAliases maps the architecture spellings accepted in formulas and
// release URLs to normalized names. Formulas may key bottles by the
// Homebrew-style tags ("intel", "arm") as well as the Go/uname names.
var archAliases = map[string]string{
	"amd64":  "amd64",
	"x86_64": "amd64",
	"x64":    "amd64",
	"intel":  "amd64",
	"arm64":  "arm64",
	"aarch64": "arm64",
	"arm":    "arm64",
}

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian": FamilyDebian,
	"ubuntu": FamilyDebian,
	"rhel":   FamilyRHEL,
	"centos": FamilyRHEL,
	"rocky":  FamilyRHEL,
	"fedora": FamilyFedora,
	"arch":   FamilyArch,
	"manjaro": FamilyArch,
	"alpine": FamilyAlpine,
}

// NormalizeArch converts an architecture tag to its normalized name.
// Only amd64 and arm64 hosts can run the bottles keg installs.
func NormalizeArch(arch string) (string, error) {
	normalized, ok := archAliases[strings.ToLower(strings.TrimSpace(arch))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedArch, arch)
	}
	return normalized, nil
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
