package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   = "(dev)"
	buildInfo = debug.BuildInfo{}
)

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		buildInfo = *bi
		if len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
			Version = bi.Main.Version
		}
	}
}

// String describes the running binary. With mod set it lists the module
// and dependency versions it was built from instead.
func String(mod bool) string {
	if mod {
		if info := strings.TrimSuffix(buildInfo.String(), "\n"); len(info) > 0 {
			return fmt.Sprintf("\t%s\n", strings.ReplaceAll(info, "\n", "\n\t"))
		}
	}
	return fmt.Sprintf("whistle %s %s %s/%s\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
