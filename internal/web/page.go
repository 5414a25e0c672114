// internal/web/page.go
package web

import _ "embed"

//go:embed page.html
var pageHTML []byte
