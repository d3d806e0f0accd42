package templates

import (
	"time"
)

// Render context keys added by RenderContext.
const (
	ContextPage     = "page"
	ContextSite     = "site"
	ContextPath     = "path"
	ContextDate     = "date"
	ContextDateTime = "datetime"
)

// RenderContext builds the data passed to Resource.Render: page metadata
// at the top level, then page, site and path, then the build date
// builtins unless the page already defines them.
func RenderContext(res Resource, site map[string]any, relPath string, now time.Time) map[string]any {
	page := res.Page()
	if page == nil {
		page = map[string]any{}
	}
	if site == nil {
		site = map[string]any{}
	}
	data := merge(page, map[string]any{
		ContextPage: page,
		ContextSite: site,
		ContextPath: relPath,
	})
	return withBuiltins(data, now)
}

func withBuiltins(data map[string]any, now time.Time) map[string]any {
	now = now.UTC()
	if _, ok := data[ContextDate]; !ok {
		data[ContextDate] = now.Format("2006-01-02")
	}
	if _, ok := data[ContextDateTime]; !ok {
		data[ContextDateTime] = now.Format(time.RFC3339)
	}
	return data
}
