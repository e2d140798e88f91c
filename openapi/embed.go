// Package openapi embeds the OpenAPI document served at /openapi.json.
package openapi

import _ "embed"

// Document is the OpenAPI document in YAML.
//
//go:embed openapi.yaml
var Document []byte
