package media

import "go.opentelemetry.io/otel"

const scopeName = "github.com/rhuss/strom/pkg/media"

var tracer = otel.Tracer(scopeName)
