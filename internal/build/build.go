package build

import "strings"

var (
	Version = "dev"
	AppName = "Terrarunt"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
