// Package api embeds the OpenAPI document of the demo catalog API.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
