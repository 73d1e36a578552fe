package chatcompat

import "go.opentelemetry.io/otel"

const scopeName = "github.com/rhuss/strom/pkg/engine/chatcompat"

var tracer = otel.Tracer(scopeName)
