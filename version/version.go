package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// validCharacters is a list of characters valid in the appBuild string
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0

	revisionLength = 12
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/xvmnet/xvmd/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters. When it is empty
// the vcs revision recorded by the go toolchain is used instead.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version as a properly formed string
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

		build := appBuild
		if build == "" {
			build = vcsRevision()
		}
		// The build metadata string is not appended if it contains invalid
		// characters.
		build = checkAppBuild(build)
		if build != "" {
			version = fmt.Sprintf("%s-%s", version, build)
		}
	})
	return version
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= revisionLength {
			return setting.Value[:revisionLength]
		}
	}
	return ""
}

// checkAppBuild returns the passed string unless it contains any characters not in validCharacters
// If any invalid characters are encountered - an empty string is returned
func checkAppBuild(str string) string {
	for _, r := range str {
		if !strings.ContainsRune(validCharacters, r) {
			return ""
		}
	}
	return str
}
