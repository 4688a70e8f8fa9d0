package version

import (
	"fmt"
	"runtime"
)

// Set through -ldflags "-X github.com/evalportal/assessment-portal/pkg/version.gitVersion=..."
var (
	gitVersion = "unknown"
	gitCommit  = ""
	buildDate  = ""
)

type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	if i.GitCommit == "" {
		return i.GitVersion
	}
	return fmt.Sprintf("%s (%s)", i.GitVersion, i.GitCommit)
}
