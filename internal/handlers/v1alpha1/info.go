package v1alpha1

import (
	"net/http"

	"github.com/evalportal/assessment-portal/pkg/version"
	"github.com/go-chi/render"
)

type InfoReply struct {
	GitCommit   string `json:"gitCommit"`
	VersionName string `json:"versionName"`
}

func (i InfoReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// (GET /api/v1/info)
func (h *ServiceHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	_ = render.Render(w, r, InfoReply{
		GitCommit:   versionInfo.GitCommit,
		VersionName: versionInfo.GitVersion,
	})
}
