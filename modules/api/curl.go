package api

import (
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/vk/testrig/internal/httpclient"
	"github.com/vk/testrig/internal/model"
)

// snapshotRequest describes the request and renders a curl command that
// reproduces it from a shell.
func snapshotRequest(spec httpclient.Request) *model.RequestSnapshot {
	method := httpclient.NormalizeMethod(spec.Method)
	target, err := spec.ResolvedURL()
	if err != nil {
		target = spec.URL
	}
	return &model.RequestSnapshot{
		Method: method,
		URL:    target,
		Curl:   curlCommand(method, target, spec.Header, spec.Body),
	}
}

func curlCommand(method, target string, header map[string]string, body any) string {
	args := []string{"curl", "-sS", "-X", method, target}

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, "-H", name+": "+header[name])
	}

	if httpclient.AllowsBody(method) && body != nil {
		if payload, ct, err := httpclient.EncodeBody(body); err == nil {
			if !hasHeader(header, "Content-Type") {
				args = append(args, "-H", "Content-Type: "+ct)
			}
			args = append(args, "--data-raw", string(payload))
		}
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = shellescape.Quote(arg)
	}
	return strings.Join(parts, " ")
}

func hasHeader(header map[string]string, name string) bool {
	for k := range header {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
