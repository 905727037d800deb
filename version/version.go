// Package version reports the running binary's module and dependency
// versions for the "docbase version" command, reading the information Go
// embeds at build time rather than anything tracked by hand.
package version

import (
	"runtime/debug"
	"sort"
)

// DependencyInfo is one entry of a build's module graph: its resolved
// version, and the replace target if go.mod redirected it.
type DependencyInfo struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Replace string `json:"replace,omitempty"`
}

// BuildInfo is the full picture printed by "docbase version": the toolchain
// that produced the binary, the main module, and every resolved dependency.
type BuildInfo struct {
	GoVersion    string           `json:"goVersion"`
	MainModule   string           `json:"mainModule"`
	MainVersion  string           `json:"mainVersion"`
	Dependencies []DependencyInfo `json:"dependencies"`
}

// GetBuildInfo reads the embedded build info, falling back to "unknown"
// fields when the binary was built without module information (e.g. via
// `go build` outside a module, which debug.ReadBuildInfo cannot see).
func GetBuildInfo() *BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return &BuildInfo{
			GoVersion:    "unknown",
			MainModule:   "unknown",
			MainVersion:  "unknown",
			Dependencies: []DependencyInfo{},
		}
	}

	buildInfo := &BuildInfo{
		GoVersion:    info.GoVersion,
		MainModule:   info.Path,
		MainVersion:  info.Main.Version,
		Dependencies: make([]DependencyInfo, 0, len(info.Deps)),
	}

	// Extract dependencies
	for _, dep := range info.Deps {
		depInfo := DependencyInfo{
			Path:    dep.Path,
			Version: dep.Version,
		}
		if dep.Replace != nil {
			depInfo.Replace = dep.Replace.Path + "@" + dep.Replace.Version
		}
		buildInfo.Dependencies = append(buildInfo.Dependencies, depInfo)
	}

	// Sort dependencies by path for consistent output
	sort.Slice(buildInfo.Dependencies, func(i, j int) bool {
		return buildInfo.Dependencies[i].Path < buildInfo.Dependencies[j].Path
	})

	return buildInfo
}

// GetDocbaseVersion reports this binary's own module version: its main
// module version when the binary IS docbase.evalgo.org, or the resolved
// version of that module among its dependencies when it's embedded in a
// larger program.
func GetDocbaseVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	// Check if this IS the docbase module
	if info.Path == "docbase.evalgo.org" {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		return "dev"
	}

	// Otherwise, look for docbase in dependencies
	for _, dep := range info.Deps {
		if dep.Path == "docbase.evalgo.org" {
			if dep.Replace != nil {
				return dep.Replace.Version + " (replaced)"
			}
			return dep.Version
		}
	}

	return "unknown"
}

// GetDependency looks up a single dependency by its module path, used by
// "docbase version --dep <path>" to answer "which version of X am I
// running" without printing the entire dependency graph.
func GetDependency(modulePath string) *DependencyInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			depInfo := &DependencyInfo{
				Path:    dep.Path,
				Version: dep.Version,
			}
			if dep.Replace != nil {
				depInfo.Replace = dep.Replace.Path + "@" + dep.Replace.Version
			}
			return depInfo
		}
	}

	return nil
}
