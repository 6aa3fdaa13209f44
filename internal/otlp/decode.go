// Package otlp implements C3: decoding OTLP/HTTP trace export requests
// (JSON or protobuf, optionally gzip-compressed) into the internal
// Trace/Observation model.
package otlp

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
)

// DecodeRequest parses body into an ExportTraceServiceRequest, branching on
// contentType (application/json via protojson, application/x-protobuf via
// proto.Unmarshal) and transparently gunzipping when contentEncoding is
// "gzip" (spec.md §4.3). A malformed body or unsupported content type
// returns an error, which the handler converts to 400 BAD_REQUEST.
func DecodeRequest(contentType, contentEncoding string, body []byte) (*coltracepb.ExportTraceServiceRequest, error) {
	if strings.EqualFold(strings.TrimSpace(contentEncoding), "gzip") {
		decoded, err := gunzip(body)
		if err != nil {
			return nil, fmt.Errorf("otlp: gzip decode: %w", err)
		}
		body = decoded
	}

	req := &coltracepb.ExportTraceServiceRequest{}

	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch mediaType {
	case "", "application/json":
		if err := protojson.Unmarshal(body, req); err != nil {
			return nil, fmt.Errorf("otlp: invalid json payload: %w", err)
		}
	case "application/x-protobuf", "application/protobuf":
		if err := proto.Unmarshal(body, req); err != nil {
			return nil, fmt.Errorf("otlp: invalid protobuf payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("otlp: unsupported content-type %q", contentType)
	}

	return req, nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
